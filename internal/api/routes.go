package api

import (
	"net/http"

	"github.com/JaimeStill/mimic/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Studio.Handler(runtime.CORS).Routes(),
		newStorageHandler(runtime.Storage, runtime.Metadata, runtime.Logger).routes(),
	)
}
