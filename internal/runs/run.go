package runs

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a training run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run records one training attempt. ModelID is set only for successful
// runs; validation metrics only when samples were held out.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	ModelID     *uuid.UUID `json:"modelId,omitempty"`
	ModelName   string     `json:"modelName"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SampleCount int        `json:"sampleCount"`
	LabelCount  int        `json:"labelCount"`
	Epochs      int        `json:"epochs"`
	Loss        float64    `json:"loss"`
	Accuracy    float64    `json:"accuracy"`
	ValLoss     *float64   `json:"valLoss,omitempty"`
	ValAccuracy *float64   `json:"valAccuracy,omitempty"`
	DurationMs  int64      `json:"durationMs"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt time.Time  `json:"completedAt"`
}
