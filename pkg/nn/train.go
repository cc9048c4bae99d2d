package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Loss names a training objective.
type Loss string

const (
	BinaryCrossEntropy      Loss = "binary_crossentropy"
	CategoricalCrossEntropy Loss = "categorical_crossentropy"
)

const probEpsilon = 1e-7

// ErrEmptyDataset indicates Fit was called without samples.
var ErrEmptyDataset = errors.New("empty dataset")

// TrainConfig holds the training hyperparameters. Zero fields take the
// defaults applied by Defaults.
type TrainConfig struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	LearningRate    float64
	Beta1           float64
	Beta2           float64
	Epsilon         float64
	Loss            Loss

	// Rand drives the split and per-epoch shuffles. Nil uses a random seed.
	Rand *rand.Rand
	// OnEpoch, when set, receives the metrics of each completed epoch. A
	// non-nil error stops training.
	OnEpoch func(EpochStats) error
}

// Defaults fills zero fields: 100 epochs, batch min(32, n), Adam with
// learning rate 0.001, β1 0.9, β2 0.999, ε 1e-7.
func (c TrainConfig) Defaults(n int) TrainConfig {
	if c.Epochs <= 0 {
		c.Epochs = 100
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	c.BatchSize = min(c.BatchSize, max(n, 1))
	if c.LearningRate <= 0 {
		c.LearningRate = 0.001
	}
	if c.Beta1 <= 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 <= 0 {
		c.Beta2 = 0.999
	}
	if c.Epsilon <= 0 {
		c.Epsilon = 1e-7
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// EpochStats are the metrics recorded at the end of one epoch. Validation
// fields are meaningful only when HasValidation is set.
type EpochStats struct {
	Epoch         int
	Loss          float64
	Accuracy      float64
	ValLoss       float64
	ValAccuracy   float64
	HasValidation bool
}

// History summarises a completed Fit.
type History struct {
	Epochs     []EpochStats
	Train      int
	Validation int
}

// Final returns the last epoch's stats.
func (h History) Final() EpochStats {
	if len(h.Epochs) == 0 {
		return EpochStats{}
	}
	return h.Epochs[len(h.Epochs)-1]
}

// Fit trains the network in place on x with targets y. The validation
// fraction (floored) is held out after an initial shuffle; the remaining
// samples are reshuffled every epoch.
func (n *Network) Fit(x, y [][]float64, cfg TrainConfig) (History, error) {
	if len(x) == 0 {
		return History{}, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return History{}, fmt.Errorf("%w: %d inputs, %d targets", ErrInvalidShape, len(x), len(y))
	}
	out := n.OutputWidth()
	for i := range x {
		if len(x[i]) != n.Input {
			return History{}, fmt.Errorf("%w: sample %d has %d features, want %d", ErrInputWidth, i, len(x[i]), n.Input)
		}
		if len(y[i]) != out {
			return History{}, fmt.Errorf("%w: target %d has width %d, want %d", ErrInvalidShape, i, len(y[i]), out)
		}
	}

	cfg = cfg.Defaults(len(x))
	if cfg.Loss == "" {
		cfg.Loss = n.defaultLoss()
	}

	order := cfg.Rand.Perm(len(x))
	nVal := int(math.Floor(float64(len(x)) * cfg.ValidationSplit))
	if nVal >= len(x) {
		nVal = len(x) - 1
	}
	val := order[:nVal]
	train := order[nVal:]
	cfg.BatchSize = min(cfg.BatchSize, len(train))

	opt := newAdam(n, cfg)
	grads := newGradients(n)
	history := History{Train: len(train), Validation: len(val)}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		cfg.Rand.Shuffle(len(train), func(i, j int) {
			train[i], train[j] = train[j], train[i]
		})

		for start := 0; start < len(train); start += cfg.BatchSize {
			batch := train[start:min(start+cfg.BatchSize, len(train))]
			grads.zero()
			for _, idx := range batch {
				n.backprop(x[idx], y[idx], grads)
			}
			grads.scale(1 / float64(len(batch)))
			opt.step(n, grads)
		}

		stats := EpochStats{Epoch: epoch}
		stats.Loss, stats.Accuracy = n.evaluate(x, y, train, cfg.Loss)
		if len(val) > 0 {
			stats.ValLoss, stats.ValAccuracy = n.evaluate(x, y, val, cfg.Loss)
			stats.HasValidation = true
		}
		if math.IsNaN(stats.Loss) || math.IsInf(stats.Loss, 0) {
			return history, fmt.Errorf("%w: loss diverged at epoch %d", ErrNonFinite, epoch)
		}

		history.Epochs = append(history.Epochs, stats)
		if cfg.OnEpoch != nil {
			if err := cfg.OnEpoch(stats); err != nil {
				return history, fmt.Errorf("stopped after epoch %d: %w", epoch, err)
			}
		}
	}

	return history, nil
}

func (n *Network) defaultLoss() Loss {
	if n.OutputWidth() == 1 {
		return BinaryCrossEntropy
	}
	return CategoricalCrossEntropy
}

// backprop accumulates the gradients of one sample into g. Both supported
// heads pair with their cross-entropy loss, so the output delta is a - y.
func (n *Network) backprop(x, y []float64, g *gradients) {
	acts := n.activations(x)
	last := len(n.Layers) - 1

	delta := make([]float64, n.Layers[last].Out)
	floats.SubTo(delta, acts[last+1], y)

	for l := last; l >= 0; l-- {
		layer := n.Layers[l]
		in := acts[l]
		for o, d := range delta {
			floats.AddScaled(g.weights[l][o*layer.In:(o+1)*layer.In], d, in)
			g.biases[l][o] += d
		}
		if l == 0 {
			break
		}

		prev := make([]float64, layer.In)
		for o, d := range delta {
			floats.AddScaled(prev, d, layer.row(o))
		}
		for i, a := range in {
			if a <= 0 {
				prev[i] = 0
			}
		}
		delta = prev
	}
}

// evaluate returns mean loss and accuracy over the indexed samples.
func (n *Network) evaluate(x, y [][]float64, idx []int, loss Loss) (float64, float64) {
	var total, correct float64
	for _, i := range idx {
		acts := n.activations(x[i])
		p := acts[len(acts)-1]
		total += sampleLoss(loss, p, y[i])
		if matches(p, y[i]) {
			correct++
		}
	}
	count := float64(len(idx))
	return total / count, correct / count
}

func sampleLoss(loss Loss, p, y []float64) float64 {
	var l float64
	switch loss {
	case BinaryCrossEntropy:
		for i := range p {
			q := clamp(p[i])
			l -= y[i]*math.Log(q) + (1-y[i])*math.Log(1-q)
		}
		l /= float64(len(p))
	default:
		for i := range p {
			if y[i] > 0 {
				l -= y[i] * math.Log(clamp(p[i]))
			}
		}
	}
	return l
}

func matches(p, y []float64) bool {
	if len(p) == 1 {
		return (p[0] >= 0.5) == (y[0] >= 0.5)
	}
	return floats.MaxIdx(p) == floats.MaxIdx(y)
}

func clamp(p float64) float64 {
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}

type gradients struct {
	weights [][]float64
	biases  [][]float64
}

func newGradients(n *Network) *gradients {
	g := &gradients{
		weights: make([][]float64, len(n.Layers)),
		biases:  make([][]float64, len(n.Layers)),
	}
	for i, layer := range n.Layers {
		g.weights[i] = make([]float64, len(layer.Weights))
		g.biases[i] = make([]float64, len(layer.Biases))
	}
	return g
}

func (g *gradients) zero() {
	for i := range g.weights {
		clear(g.weights[i])
		clear(g.biases[i])
	}
}

func (g *gradients) scale(f float64) {
	for i := range g.weights {
		floats.Scale(f, g.weights[i])
		floats.Scale(f, g.biases[i])
	}
}

// adam keeps first and second moment estimates for every parameter.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  *gradients
}

func newAdam(n *Network, cfg TrainConfig) *adam {
	return &adam{
		lr:    cfg.LearningRate,
		beta1: cfg.Beta1,
		beta2: cfg.Beta2,
		eps:   cfg.Epsilon,
		m:     newGradients(n),
		v:     newGradients(n),
	}
}

func (a *adam) step(n *Network, g *gradients) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for l, layer := range n.Layers {
		a.update(layer.Weights, g.weights[l], a.m.weights[l], a.v.weights[l], c1, c2)
		a.update(layer.Biases, g.biases[l], a.m.biases[l], a.v.biases[l], c1, c2)
	}
}

func (a *adam) update(params, grad, m, v []float64, c1, c2 float64) {
	for i, gi := range grad {
		m[i] = a.beta1*m[i] + (1-a.beta1)*gi
		v[i] = a.beta2*v[i] + (1-a.beta2)*gi*gi
		params[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
	}
}
