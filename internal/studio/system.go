// Package studio composes the sample store, trainer, catalog and inference
// engine into the operations a user drives: collect samples, train a named
// model, pick one and stream predictions through it.
package studio

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/features"
	"github.com/JaimeStill/mimic/internal/inference"
	"github.com/JaimeStill/mimic/internal/runs"
	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/internal/trainer"
	"github.com/JaimeStill/mimic/pkg/middleware"
)

// System defines the user-facing contract.
type System interface {
	Handler(cors *middleware.CORSConfig) *Handler

	AddSample(ctx context.Context, in features.Input, label string) (*SampleResult, error)
	RemoveSample(ctx context.Context, index int) (samples.Mutation, error)
	ClearSamples(ctx context.Context) (samples.Mutation, error)
	Samples(ctx context.Context) []samples.Sample
	SampleCounts(ctx context.Context) map[string]int

	// Train fits a model on the current samples. With overwrite, an existing
	// model of the same name is deleted first.
	Train(ctx context.Context, name string, overwrite bool) (*trainer.Result, error)
	ListModels(ctx context.Context) ([]catalog.Entry, error)
	FindModel(ctx context.Context, id uuid.UUID) (*catalog.Entry, error)
	SelectModel(ctx context.Context, id uuid.UUID) (*catalog.Entry, error)
	DeleteModel(ctx context.Context, id uuid.UUID) error

	// Predict extracts features from in and classifies them with the
	// selected model. A non-nil signal is applied through the validator.
	Predict(ctx context.Context, in features.Input, signal *inference.Signal) (inference.Decision, error)
	SetConfidenceThreshold(v float64) error
	SetDebugMode(enabled bool)

	Status(ctx context.Context) Status
	Runs(ctx context.Context, limit int) ([]runs.Run, error)
}

// SampleResult reports a sample addition.
type SampleResult struct {
	samples.Mutation
	Count int `json:"count"`
	Width int `json:"width"`
}

// Status summarises the studio for clients polling its state.
type Status struct {
	Engine      inference.Status `json:"engine"`
	Samples     int              `json:"samples"`
	SampleWidth int              `json:"sampleWidth"`
	LabelCounts map[string]int   `json:"labelCounts"`
	Models      int              `json:"models"`
	Training    bool             `json:"training"`
}
