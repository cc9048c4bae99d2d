package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/mimic/internal/api"
	"github.com/JaimeStill/mimic/internal/config"
	"github.com/JaimeStill/mimic/internal/infrastructure"
	"github.com/JaimeStill/mimic/pkg/handlers"
	"github.com/JaimeStill/mimic/pkg/lifecycle"
	"github.com/JaimeStill/mimic/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) error {
	return router.Mount(m.API)
}

type readiness struct {
	Status  string   `json:"status"`
	Pending []string `json:"pending,omitempty"`
}

func buildRouter(lc *lifecycle.Coordinator) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !lc.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, readiness{
				Status:  "not ready",
				Pending: lc.Pending(),
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ready"})
	})

	router.Handle("GET /metrics", promhttp.Handler())

	return router
}
