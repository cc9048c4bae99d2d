package features

import (
	"context"
	"fmt"
	"math"
)

const (
	// HandLandmarks is the number of points in a hand skeleton.
	HandLandmarks = 21
	// LandmarkWidth is the extracted vector width: every point but the wrist,
	// three coordinates each.
	LandmarkWidth = (HandLandmarks - 1) * 3

	wrist     = 0
	middleMCP = 9
	minScale  = 1e-6
)

// Landmarks converts a 21-point hand skeleton into wrist-relative
// coordinates scaled by palm size, so the vector is invariant to where the
// hand sits in frame and how far it is from the camera.
type Landmarks struct{}

func (Landmarks) Name() string { return "landmarks" }

func (Landmarks) Extract(_ context.Context, in Input) ([]float64, error) {
	if len(in.Landmarks) == 0 {
		return nil, fmt.Errorf("%w: landmarks", ErrMissingInput)
	}
	if len(in.Landmarks) != HandLandmarks {
		return nil, fmt.Errorf("%w: got %d points, want %d", ErrInvalidLandmarks, len(in.Landmarks), HandLandmarks)
	}

	origin := in.Landmarks[wrist]
	scale := distance(origin, in.Landmarks[middleMCP])
	if math.IsNaN(scale) || scale < minScale {
		return nil, fmt.Errorf("%w: palm size %v", ErrInvalidLandmarks, scale)
	}

	out := make([]float64, 0, LandmarkWidth)
	for i, p := range in.Landmarks {
		if i == wrist {
			continue
		}
		out = append(out,
			(p.X-origin.X)/scale,
			(p.Y-origin.Y)/scale,
			(p.Z-origin.Z)/scale,
		)
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate", ErrInvalidLandmarks)
		}
	}
	return out, nil
}

func distance(a, b Point) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
