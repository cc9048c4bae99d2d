package nn

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// FormatVersion is the artifact layout written by Marshal.
const FormatVersion = 1

// ErrInvalidArtifact indicates serialized weights that cannot form a network.
var ErrInvalidArtifact = errors.New("invalid network artifact")

type artifact struct {
	Version int          `json:"version"`
	Input   int          `json:"input"`
	Layers  []layerState `json:"layers"`
}

type layerState struct {
	In         int        `json:"in"`
	Out        int        `json:"out"`
	Activation Activation `json:"activation"`
	Weights    []float64  `json:"weights"`
	Biases     []float64  `json:"biases"`
}

// Marshal encodes the network topology and weights as JSON.
func (n *Network) Marshal() ([]byte, error) {
	a := artifact{
		Version: FormatVersion,
		Input:   n.Input,
		Layers:  make([]layerState, len(n.Layers)),
	}
	for i, l := range n.Layers {
		a.Layers[i] = layerState{
			In:         l.In,
			Out:        l.Out,
			Activation: l.Activation,
			Weights:    l.Weights,
			Biases:     l.Biases,
		}
	}
	return json.Marshal(a)
}

// Unmarshal decodes and validates a network produced by Marshal.
func Unmarshal(data []byte) (*Network, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidArtifact, a.Version)
	}
	if a.Input < 1 || len(a.Layers) == 0 {
		return nil, fmt.Errorf("%w: empty topology", ErrInvalidArtifact)
	}

	n := &Network{Input: a.Input, Layers: make([]*Dense, len(a.Layers))}
	prev := a.Input
	for i, l := range a.Layers {
		if l.In != prev || l.Out < 1 {
			return nil, fmt.Errorf("%w: layer %d is %dx%d after width %d", ErrInvalidArtifact, i, l.In, l.Out, prev)
		}
		if len(l.Weights) != l.In*l.Out || len(l.Biases) != l.Out {
			return nil, fmt.Errorf("%w: layer %d parameter count", ErrInvalidArtifact, i)
		}
		if l.Activation != expectedActivation(i, len(a.Layers), l.Out) {
			return nil, fmt.Errorf("%w: layer %d activation %q", ErrInvalidArtifact, i, l.Activation)
		}
		if !finite(l.Weights) || !finite(l.Biases) {
			return nil, fmt.Errorf("%w: layer %d holds non-finite parameters", ErrInvalidArtifact, i)
		}

		n.Layers[i] = &Dense{
			In:         l.In,
			Out:        l.Out,
			Activation: l.Activation,
			Weights:    l.Weights,
			Biases:     l.Biases,
		}
		prev = l.Out
	}

	return n, nil
}

// expectedActivation is ReLU for hidden layers. The output layer is a
// sigmoid when it has one unit and a softmax otherwise.
func expectedActivation(i, layers, out int) Activation {
	switch {
	case i < layers-1:
		return ReLU
	case out == 1:
		return Sigmoid
	}
	return Softmax
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
