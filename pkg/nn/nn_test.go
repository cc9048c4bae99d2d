package nn_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/JaimeStill/mimic/pkg/nn"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		hidden  []int
		output  int
		head    nn.Activation
		wantErr bool
	}{
		{"binary", 4, []int{16, 8}, 1, nn.Sigmoid, false},
		{"multi", 60, []int{16, 8}, 3, nn.Softmax, false},
		{"no hidden layers", 2, nil, 2, nn.Softmax, false},
		{"zero input", 0, []int{8}, 1, nn.Sigmoid, true},
		{"zero hidden width", 4, []int{0}, 1, nn.Sigmoid, true},
		{"relu head", 4, []int{8}, 1, nn.ReLU, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := nn.New(tt.input, tt.hidden, tt.output, tt.head, seeded(1))
			if tt.wantErr {
				if !errors.Is(err, nn.ErrInvalidShape) {
					t.Fatalf("New() error = %v, want ErrInvalidShape", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := len(net.Layers); got != len(tt.hidden)+1 {
				t.Errorf("layers = %d, want %d", got, len(tt.hidden)+1)
			}
			if net.OutputWidth() != tt.output {
				t.Errorf("OutputWidth() = %d, want %d", net.OutputWidth(), tt.output)
			}
		})
	}
}

func TestForward(t *testing.T) {
	t.Run("softmax sums to one", func(t *testing.T) {
		net, err := nn.New(3, []int{8}, 4, nn.Softmax, seeded(2))
		if err != nil {
			t.Fatal(err)
		}
		out, err := net.Forward([]float64{0.5, -1, 2})
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		var sum float64
		for _, p := range out {
			if p < 0 || p > 1 {
				t.Errorf("probability %v out of range", p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("sum = %v, want 1", sum)
		}
	})

	t.Run("sigmoid stays in unit interval", func(t *testing.T) {
		net, err := nn.New(2, []int{4}, 1, nn.Sigmoid, seeded(3))
		if err != nil {
			t.Fatal(err)
		}
		out, err := net.Forward([]float64{1e6, -1e6})
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		if len(out) != 1 || out[0] < 0 || out[0] > 1 {
			t.Errorf("Forward() = %v", out)
		}
	})

	t.Run("rejects wrong width", func(t *testing.T) {
		net, err := nn.New(3, nil, 1, nn.Sigmoid, seeded(4))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := net.Forward([]float64{1, 2}); !errors.Is(err, nn.ErrInputWidth) {
			t.Errorf("Forward() error = %v, want ErrInputWidth", err)
		}
	})

	t.Run("reports non-finite output", func(t *testing.T) {
		net, err := nn.New(1, nil, 1, nn.Sigmoid, seeded(5))
		if err != nil {
			t.Fatal(err)
		}
		net.Layers[0].Biases[0] = math.NaN()
		if _, err := net.Forward([]float64{1}); !errors.Is(err, nn.ErrNonFinite) {
			t.Errorf("Forward() error = %v, want ErrNonFinite", err)
		}
	})
}

// clusters returns well separated points around one centre per class.
func clusters(rng *rand.Rand, centres [][]float64, perClass int) ([][]float64, []int) {
	var x [][]float64
	var labels []int
	for c, centre := range centres {
		for range perClass {
			p := make([]float64, len(centre))
			for i, v := range centre {
				p[i] = v + (rng.Float64()-0.5)*0.2
			}
			x = append(x, p)
			labels = append(labels, c)
		}
	}
	return x, labels
}

func TestFitSeparatesClusters(t *testing.T) {
	rng := seeded(7)
	centres := [][]float64{{1, 0}, {0, 1}, {-1, -1}}
	x, labels := clusters(rng, centres, 20)

	y := make([][]float64, len(labels))
	for i, l := range labels {
		y[i] = make([]float64, len(centres))
		y[i][l] = 1
	}

	net, err := nn.New(2, []int{16, 8}, 3, nn.Softmax, rng)
	if err != nil {
		t.Fatal(err)
	}
	history, err := net.Fit(x, y, nn.TrainConfig{
		Epochs:          200,
		ValidationSplit: 0.2,
		LearningRate:    0.01,
		Rand:            rng,
	})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if history.Validation != 12 || history.Train != 48 {
		t.Errorf("split = %d/%d, want 48/12", history.Train, history.Validation)
	}
	final := history.Final()
	if final.Accuracy < 0.95 {
		t.Errorf("train accuracy = %v, want >= 0.95", final.Accuracy)
	}
	if !final.HasValidation {
		t.Error("expected validation metrics")
	}
	if first := history.Epochs[0]; final.Loss >= first.Loss {
		t.Errorf("loss did not decrease: %v -> %v", first.Loss, final.Loss)
	}
}

func TestFitBinary(t *testing.T) {
	rng := seeded(11)
	x, labels := clusters(rng, [][]float64{{1, 1}, {-1, -1}}, 10)
	y := make([][]float64, len(labels))
	for i, l := range labels {
		y[i] = []float64{float64(l)}
	}

	net, err := nn.New(2, []int{8}, 1, nn.Sigmoid, rng)
	if err != nil {
		t.Fatal(err)
	}

	var epochs int
	_, err = net.Fit(x, y, nn.TrainConfig{
		Epochs:       200,
		LearningRate: 0.01,
		Rand:         rng,
		OnEpoch: func(nn.EpochStats) error {
			epochs++
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if epochs != 200 {
		t.Errorf("OnEpoch calls = %d, want 200", epochs)
	}

	out, err := net.Forward([]float64{-1, -1})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] < 0.7 {
		t.Errorf("p(class 1 | {-1,-1}) = %v, want >= 0.7", out[0])
	}
}

func TestFitDeterministicWithSeed(t *testing.T) {
	train := func() []float64 {
		rng := seeded(42)
		x, labels := clusters(rng, [][]float64{{1, 0}, {0, 1}}, 8)
		y := make([][]float64, len(labels))
		for i, l := range labels {
			y[i] = []float64{float64(l)}
		}
		net, err := nn.New(2, []int{4}, 1, nn.Sigmoid, rng)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := net.Fit(x, y, nn.TrainConfig{Epochs: 10, ValidationSplit: 0.2, Rand: rng}); err != nil {
			t.Fatal(err)
		}
		return net.Layers[0].Weights
	}

	a, b := train(), train()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("weights differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFitValidation(t *testing.T) {
	net, err := nn.New(2, nil, 1, nn.Sigmoid, seeded(1))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		x, y [][]float64
		want error
	}{
		{"empty", nil, nil, nn.ErrEmptyDataset},
		{"length mismatch", [][]float64{{1, 2}}, nil, nn.ErrInvalidShape},
		{"feature width", [][]float64{{1}}, [][]float64{{1}}, nn.ErrInputWidth},
		{"target width", [][]float64{{1, 2}}, [][]float64{{1, 0}}, nn.ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := net.Fit(tt.x, tt.y, nn.TrainConfig{Epochs: 1}); !errors.Is(err, tt.want) {
				t.Errorf("Fit() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFitSingleSample(t *testing.T) {
	net, err := nn.New(2, []int{4}, 1, nn.Sigmoid, seeded(9))
	if err != nil {
		t.Fatal(err)
	}
	history, err := net.Fit([][]float64{{1, 0}}, [][]float64{{1}}, nn.TrainConfig{
		Epochs:          3,
		ValidationSplit: 0.2,
		Rand:            seeded(9),
	})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if history.Validation != 0 || history.Final().HasValidation {
		t.Error("single sample should not be held out")
	}
}

func TestDefaults(t *testing.T) {
	cfg := nn.TrainConfig{}.Defaults(10)
	if cfg.Epochs != 100 {
		t.Errorf("Epochs = %d, want 100", cfg.Epochs)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.LearningRate != 0.001 || cfg.Beta1 != 0.9 || cfg.Beta2 != 0.999 || cfg.Epsilon != 1e-7 {
		t.Errorf("unexpected optimizer defaults: %+v", cfg)
	}
	if got := (nn.TrainConfig{}).Defaults(100).BatchSize; got != 32 {
		t.Errorf("BatchSize for 100 samples = %d, want 32", got)
	}
}

func TestFitStopsOnEpochError(t *testing.T) {
	net, err := nn.New(1, nil, 1, nn.Sigmoid, seeded(3))
	if err != nil {
		t.Fatal(err)
	}

	stop := errors.New("shutting down")
	history, err := net.Fit([][]float64{{0}, {1}}, [][]float64{{0}, {1}}, nn.TrainConfig{
		Epochs: 50,
		Rand:   seeded(3),
		OnEpoch: func(s nn.EpochStats) error {
			if s.Epoch == 5 {
				return stop
			}
			return nil
		},
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Fit() error = %v, want stop", err)
	}
	if len(history.Epochs) != 5 {
		t.Errorf("epochs run = %d, want 5", len(history.Epochs))
	}
}
