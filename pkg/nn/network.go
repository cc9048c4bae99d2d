// Package nn implements the small fully connected networks used for
// on-demand classification: a stack of dense layers with ReLU hidden
// activations and a sigmoid or softmax head, trained with Adam.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Activation names a layer's nonlinearity.
type Activation string

const (
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
	Softmax Activation = "softmax"
)

var (
	// ErrInputWidth indicates a vector whose length does not match the network input.
	ErrInputWidth = errors.New("input width mismatch")
	// ErrInvalidShape indicates an impossible layer configuration.
	ErrInvalidShape = errors.New("invalid network shape")
	// ErrNonFinite indicates the network produced NaN or Inf.
	ErrNonFinite = errors.New("non-finite network output")
)

// Dense is a fully connected layer. Weights are stored row-major with one
// row per output unit: Weights[o*In+i].
type Dense struct {
	In         int
	Out        int
	Activation Activation
	Weights    []float64
	Biases     []float64
}

func (d *Dense) row(o int) []float64 {
	return d.Weights[o*d.In : (o+1)*d.In]
}

// forward computes the layer output for x into out.
func (d *Dense) forward(x, out []float64) {
	for o := range d.Out {
		out[o] = floats.Dot(d.row(o), x) + d.Biases[o]
	}
	activate(d.Activation, out)
}

// Network is an ordered stack of dense layers.
type Network struct {
	Input  int
	Layers []*Dense
}

// New builds a network with Glorot-uniform weights and zero biases:
// input → hidden (ReLU) → output (head activation).
func New(input int, hidden []int, output int, head Activation, rng *rand.Rand) (*Network, error) {
	if input < 1 || output < 1 {
		return nil, fmt.Errorf("%w: input %d, output %d", ErrInvalidShape, input, output)
	}
	if head != Sigmoid && head != Softmax {
		return nil, fmt.Errorf("%w: unsupported head %q", ErrInvalidShape, head)
	}

	n := &Network{Input: input}
	prev := input
	for _, width := range hidden {
		if width < 1 {
			return nil, fmt.Errorf("%w: hidden width %d", ErrInvalidShape, width)
		}
		n.Layers = append(n.Layers, newDense(prev, width, ReLU, rng))
		prev = width
	}
	n.Layers = append(n.Layers, newDense(prev, output, head, rng))

	return n, nil
}

func newDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	limit := math.Sqrt(6 / float64(in+out))
	weights := make([]float64, in*out)
	for i := range weights {
		weights[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Dense{
		In:         in,
		Out:        out,
		Activation: act,
		Weights:    weights,
		Biases:     make([]float64, out),
	}
}

// OutputWidth returns the number of output units.
func (n *Network) OutputWidth() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[len(n.Layers)-1].Out
}

// Forward evaluates the network on x and returns the output probabilities.
func (n *Network) Forward(x []float64) ([]float64, error) {
	if len(x) != n.Input {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputWidth, len(x), n.Input)
	}

	acts := n.activations(x)
	out := acts[len(acts)-1]
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
	}
	return out, nil
}

// activations returns x followed by every layer's output.
func (n *Network) activations(x []float64) [][]float64 {
	acts := make([][]float64, len(n.Layers)+1)
	acts[0] = x
	for i, layer := range n.Layers {
		acts[i+1] = make([]float64, layer.Out)
		layer.forward(acts[i], acts[i+1])
	}
	return acts
}

func activate(act Activation, v []float64) {
	switch act {
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case Sigmoid:
		for i, x := range v {
			v[i] = sigmoid(x)
		}
	case Softmax:
		peak := floats.Max(v)
		for i, x := range v {
			v[i] = math.Exp(x - peak)
		}
		floats.Scale(1/floats.Sum(v), v)
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
