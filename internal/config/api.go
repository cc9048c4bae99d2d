package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/mimic/pkg/middleware"
	"github.com/JaimeStill/mimic/pkg/module"
)

const EnvAPIBasePath = "MIMIC_API_BASE_PATH"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MIMIC_CORS_ENABLED",
	Origins:          "MIMIC_CORS_ORIGINS",
	AllowedMethods:   "MIMIC_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MIMIC_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MIMIC_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MIMIC_CORS_MAX_AGE",
}

// APIConfig holds API routing and CORS settings. The CORS origins also
// govern which browser origins may open the prediction stream.
type APIConfig struct {
	BasePath string                `toml:"base_path"`
	CORS     middleware.CORSConfig `toml:"cors"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
}

func (c *APIConfig) validate() error {
	if err := module.ValidatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("base_path: %w", err)
	}
	return nil
}
