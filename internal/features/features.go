// Package features turns client input into the fixed-width feature vectors
// the classifier consumes. Callers either post a vector directly or hand
// over raw hand landmarks for geometric extraction.
package features

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoFeatures indicates that no extractor in a chain produced a vector.
	ErrNoFeatures = errors.New("no features could be extracted")
	// ErrMissingInput indicates the input lacks what an extractor reads.
	ErrMissingInput = errors.New("input missing")
	// ErrInvalidLandmarks indicates a landmark set of the wrong size or
	// degenerate geometry.
	ErrInvalidLandmarks = errors.New("invalid landmarks")
)

// Point is one normalised landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Input is the raw material a client submits for one frame.
type Input struct {
	Features  []float64 `json:"features,omitempty"`
	Landmarks []Point   `json:"landmarks,omitempty"`
}

// Extractor produces a feature vector from an input.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, in Input) ([]float64, error)
}

// Passthrough returns the caller's feature vector unchanged.
type Passthrough struct{}

func (Passthrough) Name() string { return "passthrough" }

func (Passthrough) Extract(_ context.Context, in Input) ([]float64, error) {
	if len(in.Features) == 0 {
		return nil, fmt.Errorf("%w: features", ErrMissingInput)
	}
	for i, v := range in.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: feature %d is not finite", ErrMissingInput, i)
		}
	}
	return append([]float64(nil), in.Features...), nil
}

// Chain tries each extractor in order and returns the first vector produced.
type Chain []Extractor

// NewChain builds a chain from the given extractors.
func NewChain(extractors ...Extractor) Chain {
	return Chain(extractors)
}

// Default prefers explicit features and falls back to landmarks.
func Default() Chain {
	return NewChain(Passthrough{}, Landmarks{})
}

func (c Chain) Name() string { return "chain" }

func (c Chain) Extract(ctx context.Context, in Input) ([]float64, error) {
	errs := []error{ErrNoFeatures}
	for _, x := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := x.Extract(ctx, in)
		if err == nil {
			return v, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", x.Name(), err))
	}
	return nil, errors.Join(errs...)
}
