package api

import (
	"github.com/JaimeStill/mimic/internal/config"
	"github.com/JaimeStill/mimic/internal/infrastructure"
	"github.com/JaimeStill/mimic/pkg/middleware"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Classifier config.ClassifierConfig
	CORS       *middleware.CORSConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metadata:  infra.Metadata,
		},
		Classifier: cfg.Classifier,
		CORS:       &cfg.API.CORS,
	}
}
