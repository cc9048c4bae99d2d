package inference

import (
	"github.com/google/uuid"
)

// Rejection reasons reported in Decision.Reason.
const (
	ReasonLowConfidence = "low confidence"
	ReasonAmbiguous     = "ambiguous"
	ReasonValidator     = "rejected by validator"
)

// Decision is the gated outcome of one prediction. Label is empty when
// the engine declines to decide; in debug mode a rejected Candidate is
// returned as Label with the rejection reason appended.
type Decision struct {
	Label         string             `json:"label,omitempty"`
	Candidate     string             `json:"candidate"`
	Confidence    float64            `json:"confidence"`
	Accepted      bool               `json:"accepted"`
	Ambiguous     bool               `json:"ambiguous"`
	Margin        float64            `json:"margin"`
	Entropy       float64            `json:"entropy"`
	Threshold     float64            `json:"threshold"`
	Reason        string             `json:"reason,omitempty"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelID       uuid.UUID          `json:"modelId"`
}

// HasLabel reports whether the decision carries a label.
func (d Decision) HasLabel() bool {
	return d.Label != ""
}
