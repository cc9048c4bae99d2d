package storage

import (
	"fmt"
	"os"

	"github.com/JaimeStill/mimic/pkg/formatting"
)

// Config holds storage provider parameters. Path applies to the local
// providers (bolt, badger); ConnectionString applies to azure. ContainerName
// is the Azure container, the bolt bucket, or the badger key prefix.
type Config struct {
	Provider         string `toml:"provider"`
	Path             string `toml:"path"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	Quota            string `toml:"quota"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Path             string
	ContainerName    string
	ConnectionString string
	Quota            string
}

// QuotaBytes returns Quota as a byte count. An empty quota means unlimited (0).
func (c *Config) QuotaBytes() (int64, error) {
	if c.Quota == "" {
		return 0, nil
	}
	n, err := formatting.ParseBytes(c.Quota)
	if err != nil {
		return 0, fmt.Errorf("invalid quota: %w", err)
	}
	return n, nil
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.Quota != "" {
		c.Quota = overlay.Quota
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderBolt
	}
	if c.ContainerName == "" {
		c.ContainerName = "models"
	}
	if c.Path == "" {
		c.Path = "data/" + c.ContainerName + ".db"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.Quota != "" {
		if v := os.Getenv(env.Quota); v != "" {
			c.Quota = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required")
		}
	case ProviderBolt, ProviderBadger:
		if c.Path == "" {
			return fmt.Errorf("path required")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := c.QuotaBytes(); err != nil {
		return err
	}
	return nil
}
