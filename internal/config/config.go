package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/mimic/pkg/database"
	"github.com/JaimeStill/mimic/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMimicEnv             = "MIMIC_ENV"
	EnvMimicShutdownTimeout = "MIMIC_SHUTDOWN_TIMEOUT"
	EnvMimicVersion         = "MIMIC_VERSION"
	EnvMimicLogLevel        = "MIMIC_LOG_LEVEL"
)

const (
	defaultMetadataContainer = "metadata"
	defaultMetadataQuota     = "5MB"
)

var databaseEnv = &database.Env{
	Disabled:        "MIMIC_DB_DISABLED",
	Host:            "MIMIC_DB_HOST",
	Port:            "MIMIC_DB_PORT",
	Name:            "MIMIC_DB_NAME",
	User:            "MIMIC_DB_USER",
	Password:        "MIMIC_DB_PASSWORD",
	SSLMode:         "MIMIC_DB_SSL_MODE",
	MaxOpenConns:    "MIMIC_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "MIMIC_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "MIMIC_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "MIMIC_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "MIMIC_STORAGE_PROVIDER",
	Path:             "MIMIC_STORAGE_PATH",
	ContainerName:    "MIMIC_STORAGE_CONTAINER_NAME",
	ConnectionString: "MIMIC_STORAGE_CONNECTION_STRING",
	Quota:            "MIMIC_STORAGE_QUOTA",
}

var metadataEnv = &storage.Env{
	Provider:         "MIMIC_METADATA_PROVIDER",
	Path:             "MIMIC_METADATA_PATH",
	ContainerName:    "MIMIC_METADATA_CONTAINER_NAME",
	ConnectionString: "MIMIC_METADATA_CONNECTION_STRING",
	Quota:            "MIMIC_METADATA_QUOTA",
}

// Config is the root configuration for the mimic service. Storage holds
// model artifacts; Metadata holds the sample set and catalog index under
// a byte quota.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Metadata        storage.Config   `toml:"metadata"`
	API             APIConfig        `toml:"api"`
	Classifier      ClassifierConfig `toml:"classifier"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
	LogLevel        string           `toml:"log_level"`
}

// Env returns the MIMIC_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMimicEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Metadata.Merge(&overlay.Metadata)
	c.API.Merge(&overlay.API)
	c.Classifier.Merge(&overlay.Classifier)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Metadata.Finalize(metadataEnv); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := c.checkStores(); err != nil {
		return err
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Classifier.Finalize(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Metadata.ContainerName == "" {
		c.Metadata.ContainerName = defaultMetadataContainer
	}
	if c.Metadata.Quota == "" {
		c.Metadata.Quota = defaultMetadataQuota
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvMimicShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvMimicVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvMimicLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// checkStores rejects two local stores opened on the same file.
func (c *Config) checkStores() error {
	local := func(p string) bool { return p == storage.ProviderBolt || p == storage.ProviderBadger }
	if local(c.Storage.Provider) && local(c.Metadata.Provider) &&
		strings.EqualFold(c.Storage.Path, c.Metadata.Path) {
		return fmt.Errorf("storage and metadata must not share path %s", c.Storage.Path)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMimicEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
