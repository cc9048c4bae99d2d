package features_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/JaimeStill/mimic/internal/features"
)

func hand(offset features.Point, scale float64) []features.Point {
	pts := make([]features.Point, features.HandLandmarks)
	for i := range pts {
		pts[i] = features.Point{
			X: offset.X + scale*float64(i%5)*0.1,
			Y: offset.Y + scale*float64(i/5)*0.1,
			Z: offset.Z + scale*float64(i)*0.01,
		}
	}
	return pts
}

func TestPassthrough(t *testing.T) {
	in := features.Input{Features: []float64{1, 2, 3}}
	got, err := features.Passthrough{}.Extract(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 99
	if in.Features[0] != 1 {
		t.Error("Extract() should copy the input vector")
	}

	tests := []struct {
		name string
		in   features.Input
	}{
		{"empty", features.Input{}},
		{"nan", features.Input{Features: []float64{1, math.NaN()}}},
		{"inf", features.Input{Features: []float64{math.Inf(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (features.Passthrough{}).Extract(context.Background(), tt.in); !errors.Is(err, features.ErrMissingInput) {
				t.Errorf("Extract() error = %v, want ErrMissingInput", err)
			}
		})
	}
}

func TestLandmarks(t *testing.T) {
	ctx := context.Background()
	x := features.Landmarks{}

	base, err := x.Extract(ctx, features.Input{Landmarks: hand(features.Point{}, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(base) != features.LandmarkWidth || features.LandmarkWidth != 60 {
		t.Fatalf("len = %d, want 60", len(base))
	}

	shifted, err := x.Extract(ctx, features.Input{Landmarks: hand(features.Point{X: 0.3, Y: -0.2, Z: 0.1}, 2.5)})
	if err != nil {
		t.Fatal(err)
	}
	for i := range base {
		if math.Abs(base[i]-shifted[i]) > 1e-9 {
			t.Fatalf("coordinate %d = %v, want %v (translation and scale invariant)", i, shifted[i], base[i])
		}
	}

	// Landmark 9 sits one palm length from the wrist.
	p9 := base[(9-1)*3 : 9*3]
	if n := math.Sqrt(p9[0]*p9[0] + p9[1]*p9[1] + p9[2]*p9[2]); math.Abs(n-1) > 1e-9 {
		t.Errorf("|landmark 9| = %v, want 1", n)
	}
}

func TestLandmarksInvalid(t *testing.T) {
	collapsed := make([]features.Point, features.HandLandmarks)

	tests := []struct {
		name   string
		points []features.Point
		target error
	}{
		{"missing", nil, features.ErrMissingInput},
		{"too few", hand(features.Point{}, 1)[:20], features.ErrInvalidLandmarks},
		{"degenerate palm", collapsed, features.ErrInvalidLandmarks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := features.Landmarks{}.Extract(context.Background(), features.Input{Landmarks: tt.points})
			if !errors.Is(err, tt.target) {
				t.Errorf("Extract() error = %v, want %v", err, tt.target)
			}
		})
	}
}

type stubExtractor struct {
	name    string
	extract func(features.Input) ([]float64, error)
}

func (s stubExtractor) Name() string { return s.name }

func (s stubExtractor) Extract(_ context.Context, in features.Input) ([]float64, error) {
	return s.extract(in)
}

func TestChainFallsBack(t *testing.T) {
	ctx := context.Background()
	calls := 0
	failing := stubExtractor{name: "vision", extract: func(features.Input) ([]float64, error) {
		calls++
		return nil, errors.New("backend unavailable")
	}}

	chain := features.NewChain(failing, features.Passthrough{}, features.Landmarks{})

	got, err := chain.Extract(ctx, features.Input{Landmarks: hand(features.Point{}, 1)})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != features.LandmarkWidth || calls != 1 {
		t.Errorf("len = %d calls = %d", len(got), calls)
	}

	got, err = chain.Extract(ctx, features.Input{Features: []float64{4, 5}})
	if err != nil || len(got) != 2 {
		t.Errorf("Extract(features) = %v, %v", got, err)
	}
}

func TestChainAllFail(t *testing.T) {
	_, err := features.Default().Extract(context.Background(), features.Input{})
	if !errors.Is(err, features.ErrNoFeatures) {
		t.Fatalf("Extract() error = %v, want ErrNoFeatures", err)
	}
	if !errors.Is(err, features.ErrMissingInput) {
		t.Errorf("Extract() error = %v, want joined extractor failures", err)
	}
}

func TestChainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := features.Default().Extract(ctx, features.Input{Features: []float64{1}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}
