// Package inference evaluates the selected model against feature vectors
// and gates each prediction with a confidence and ambiguity policy.
package inference

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/internal/catalog"
)

// State is the engine's selection state.
type State string

const (
	StateUnselected State = "unselected"
	StateLoading    State = "loading"
	StateReady      State = "ready"
)

// Status is a point-in-time view of the engine.
type Status struct {
	State        State      `json:"state"`
	ModelID      *uuid.UUID `json:"modelId,omitempty"`
	ModelName    string     `json:"modelName,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	FeatureWidth int        `json:"featureWidth,omitempty"`
	Threshold    float64    `json:"threshold"`
	Debug        bool       `json:"debug"`
}

// Config holds engine defaults.
type Config struct {
	Threshold float64
	Debug     bool
	// LogInterval bounds per-prediction debug logs to one per interval.
	LogInterval time.Duration
}

// System defines the inference engine contract.
type System interface {
	// Select loads the entry and artifact for id and makes it the active
	// model. On failure the engine is left unselected.
	Select(ctx context.Context, id uuid.UUID) (*catalog.Entry, error)
	// Release clears the selection if id is the active model.
	Release(id uuid.UUID) bool
	Reset()

	// Predict evaluates features against the active model. Evaluation
	// failures do not change the engine state.
	Predict(ctx context.Context, features []float64) (Decision, error)

	SetConfidenceThreshold(v float64) error
	SetDebug(enabled bool)
	Status() Status
}
