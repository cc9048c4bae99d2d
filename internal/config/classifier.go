package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvClassifierEpochs              = "MIMIC_CLASSIFIER_EPOCHS"
	EnvClassifierBatchSize           = "MIMIC_CLASSIFIER_BATCH_SIZE"
	EnvClassifierValidationSplit     = "MIMIC_CLASSIFIER_VALIDATION_SPLIT"
	EnvClassifierLearningRate        = "MIMIC_CLASSIFIER_LEARNING_RATE"
	EnvClassifierHiddenLayers        = "MIMIC_CLASSIFIER_HIDDEN_LAYERS"
	EnvClassifierSeed                = "MIMIC_CLASSIFIER_SEED"
	EnvClassifierConfidenceThreshold = "MIMIC_CLASSIFIER_CONFIDENCE_THRESHOLD"
	EnvClassifierDebug               = "MIMIC_CLASSIFIER_DEBUG"
	EnvClassifierRetain              = "MIMIC_CLASSIFIER_RETAIN"
	EnvClassifierRunRetain           = "MIMIC_CLASSIFIER_RUN_RETAIN"
	EnvClassifierLogInterval         = "MIMIC_CLASSIFIER_LOG_INTERVAL"
	EnvClassifierLogEvery            = "MIMIC_CLASSIFIER_LOG_EVERY"
	EnvClassifierValidator           = "MIMIC_CLASSIFIER_VALIDATOR"
)

// ClassifierConfig holds training hyperparameters, the inference gate
// settings, and retention limits.
type ClassifierConfig struct {
	Epochs          int     `toml:"epochs"`
	BatchSize       int     `toml:"batch_size"`
	ValidationSplit float64 `toml:"validation_split"`
	LearningRate    float64 `toml:"learning_rate"`
	// HiddenLayers overrides the width-derived hidden layers when set.
	HiddenLayers []int  `toml:"hidden_layers"`
	Seed         uint64 `toml:"seed"`

	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	Debug               bool    `toml:"debug"`
	// Validator enables the signal validator for predictions that carry
	// an auxiliary signal.
	Validator bool `toml:"validator"`

	Retain    int `toml:"retain"`
	RunRetain int `toml:"run_retain"`

	// LogInterval rate-limits per-frame prediction logs.
	LogInterval string `toml:"log_interval"`
	// LogEvery logs training progress every n epochs.
	LogEvery int `toml:"log_every"`
}

// LogIntervalDuration returns LogInterval as a time.Duration.
func (c *ClassifierConfig) LogIntervalDuration() time.Duration {
	return duration(c.LogInterval)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Boolean fields apply only
// when set in the overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Epochs != 0 {
		c.Epochs = overlay.Epochs
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.ValidationSplit != 0 {
		c.ValidationSplit = overlay.ValidationSplit
	}
	if overlay.LearningRate != 0 {
		c.LearningRate = overlay.LearningRate
	}
	if overlay.HiddenLayers != nil {
		c.HiddenLayers = overlay.HiddenLayers
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.Debug {
		c.Debug = true
	}
	if overlay.Validator {
		c.Validator = true
	}
	if overlay.Retain != 0 {
		c.Retain = overlay.Retain
	}
	if overlay.RunRetain != 0 {
		c.RunRetain = overlay.RunRetain
	}
	if overlay.LogInterval != "" {
		c.LogInterval = overlay.LogInterval
	}
	if overlay.LogEvery != 0 {
		c.LogEvery = overlay.LogEvery
	}
}

func (c *ClassifierConfig) loadDefaults() {
	if c.Epochs == 0 {
		c.Epochs = 100
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.ValidationSplit == 0 {
		c.ValidationSplit = 0.2
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.001
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.3
	}
	if c.Retain == 0 {
		c.Retain = 10
	}
	if c.RunRetain == 0 {
		c.RunRetain = 200
	}
	if c.LogInterval == "" {
		c.LogInterval = "1s"
	}
	if c.LogEvery == 0 {
		c.LogEvery = 10
	}
}

func (c *ClassifierConfig) loadEnv() error {
	ints := []struct {
		env string
		dst *int
	}{
		{EnvClassifierEpochs, &c.Epochs},
		{EnvClassifierBatchSize, &c.BatchSize},
		{EnvClassifierRetain, &c.Retain},
		{EnvClassifierRunRetain, &c.RunRetain},
		{EnvClassifierLogEvery, &c.LogEvery},
	}
	for _, f := range ints {
		if v := os.Getenv(f.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{EnvClassifierValidationSplit, &c.ValidationSplit},
		{EnvClassifierLearningRate, &c.LearningRate},
		{EnvClassifierConfidenceThreshold, &c.ConfidenceThreshold},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = n
		}
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{EnvClassifierDebug, &c.Debug},
		{EnvClassifierValidator, &c.Validator},
	}
	for _, f := range bools {
		if v := os.Getenv(f.env); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = b
		}
	}

	if v := os.Getenv(EnvClassifierSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvClassifierSeed, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv(EnvClassifierHiddenLayers); v != "" {
		layers, err := parseLayers(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvClassifierHiddenLayers, err)
		}
		c.HiddenLayers = layers
	}
	if v := os.Getenv(EnvClassifierLogInterval); v != "" {
		c.LogInterval = v
	}
	return nil
}

func (c *ClassifierConfig) validate() error {
	switch {
	case c.Epochs < 1:
		return fmt.Errorf("epochs must be positive: %d", c.Epochs)
	case c.BatchSize < 1:
		return fmt.Errorf("batch_size must be positive: %d", c.BatchSize)
	case c.ValidationSplit < 0 || c.ValidationSplit >= 1:
		return fmt.Errorf("validation_split must be in [0, 1): %v", c.ValidationSplit)
	case c.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive: %v", c.LearningRate)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("confidence_threshold must be in [0, 1]: %v", c.ConfidenceThreshold)
	case c.Retain < 1:
		return fmt.Errorf("retain must be positive: %d", c.Retain)
	case c.RunRetain < 1:
		return fmt.Errorf("run_retain must be positive: %d", c.RunRetain)
	case c.LogEvery < 0:
		return fmt.Errorf("log_every must not be negative: %d", c.LogEvery)
	}
	for _, w := range c.HiddenLayers {
		if w < 1 {
			return fmt.Errorf("hidden_layers must be positive: %v", c.HiddenLayers)
		}
	}
	if _, err := time.ParseDuration(c.LogInterval); err != nil {
		return fmt.Errorf("invalid log_interval: %w", err)
	}
	return nil
}

func parseLayers(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	layers := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		layers = append(layers, n)
	}
	return layers, nil
}
