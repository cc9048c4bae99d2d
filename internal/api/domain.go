package api

import (
	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/features"
	"github.com/JaimeStill/mimic/internal/inference"
	"github.com/JaimeStill/mimic/internal/runs"
	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/internal/studio"
	"github.com/JaimeStill/mimic/internal/trainer"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Samples samples.System
	Catalog catalog.System
	Runs    runs.System
	Trainer trainer.System
	Engine  inference.System
	Studio  studio.System
}

// NewDomain creates all domain systems from the API runtime and registers
// the restoring systems with the lifecycle coordinator.
func NewDomain(runtime *Runtime) *Domain {
	c := runtime.Classifier

	samplesSystem := samples.New(runtime.Metadata, runtime.Logger)
	catalogSystem := catalog.New(runtime.Storage, runtime.Metadata, c.Retain, runtime.Logger)

	var runsSystem runs.System
	if runtime.Database != nil {
		runsSystem = runs.New(runtime.Database.Connection(), c.RunRetain, runtime.Logger)
	} else {
		runsSystem = runs.NewMemory(c.RunRetain)
	}

	trainerSystem := trainer.New(catalogSystem, runsSystem, trainer.Config{
		Epochs:          c.Epochs,
		BatchSize:       c.BatchSize,
		ValidationSplit: c.ValidationSplit,
		LearningRate:    c.LearningRate,
		Hidden:          c.HiddenLayers,
		Seed:            c.Seed,
		LogEvery:        c.LogEvery,
	}, runtime.Logger)

	engine := inference.New(catalogSystem, inference.Config{
		Threshold:   c.ConfidenceThreshold,
		Debug:       c.Debug,
		LogInterval: c.LogIntervalDuration(),
	}, runtime.Logger)

	var validator inference.Validator
	if c.Validator {
		validator = inference.DefaultSignalValidator()
	}

	studioSystem := studio.New(studio.Deps{
		Samples:   samplesSystem,
		Catalog:   catalogSystem,
		Trainer:   trainerSystem,
		Engine:    engine,
		Runs:      runsSystem,
		Extractor: features.Default(),
		Validator: validator,
		Lifecycle: runtime.Lifecycle,
	}, runtime.Logger)

	samplesSystem.Start(runtime.Lifecycle)
	catalogSystem.Start(runtime.Lifecycle)
	runtime.Lifecycle.AddCheck("samples", samplesSystem)
	runtime.Lifecycle.AddCheck("catalog", catalogSystem)

	return &Domain{
		Samples: samplesSystem,
		Catalog: catalogSystem,
		Runs:    runsSystem,
		Trainer: trainerSystem,
		Engine:  engine,
		Studio:  studioSystem,
	}
}
