package inference

import "strings"

// Signal is an independent opinion about the current input, such as a
// geometric heuristic's guess at a hand pose.
type Signal struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Validator revises a gated decision with an auxiliary signal. Callers
// apply it after Predict; the engine never consults one.
type Validator interface {
	Validate(d Decision, s Signal) Decision
}

// SignalValidator vetoes accepted decisions that a strong signal
// contradicts and promotes low-confidence candidates that a signal
// confirms. Ambiguous decisions are never promoted.
type SignalValidator struct {
	// MinScore is the score below which a signal is ignored.
	MinScore float64
	// VetoScore is the score at which a disagreeing signal rejects an
	// accepted decision.
	VetoScore float64
	// PromoteConfidence is the model confidence at which an agreeing
	// signal accepts a rejected candidate.
	PromoteConfidence float64
}

// DefaultSignalValidator returns the stock thresholds.
func DefaultSignalValidator() SignalValidator {
	return SignalValidator{
		MinScore:          0.35,
		VetoScore:         0.5,
		PromoteConfidence: 0.4,
	}
}

func (v SignalValidator) Validate(d Decision, s Signal) Decision {
	if s.Label == "" || s.Score < v.MinScore {
		return d
	}

	agree := strings.EqualFold(s.Label, d.Candidate)
	switch {
	case d.Accepted && !agree && s.Score >= v.VetoScore:
		d.Accepted = false
		d.Label = ""
		d.Reason = ReasonValidator
	case !d.Accepted && !d.Ambiguous && agree && d.Confidence >= v.PromoteConfidence:
		d.Accepted = true
		d.Label = d.Candidate
		d.Reason = ""
	}
	return d
}
