package nn

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"evolvenet/internal/evo"
)

var ErrShapeMismatch = errors.New("shape mismatch")

// FeedForward is a fully connected layered network. Each row of its weights
// holds one weight per source neuron followed by a bias weight that is always
// multiplied by 1.
type FeedForward struct {
	weights     Weights
	activation  ActivationFunc
	inputCount  int
	outputCount int

	mu    sync.Mutex
	trace [][]float64
}

// New builds a network that owns weights. Callers must not modify weights
// after the call; use CloneWeights first if they need to keep a copy.
func New(weights Weights, activation ActivationFunc) (*FeedForward, error) {
	if activation == nil {
		return nil, errors.New("activation function is required")
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	return &FeedForward{
		weights:     weights,
		activation:  activation,
		inputCount:  len(weights[0][0]) - 1,
		outputCount: len(weights[len(weights)-1]),
	}, nil
}

func MustNew(weights Weights, activation ActivationFunc) *FeedForward {
	net, err := New(weights, activation)
	if err != nil {
		panic(err)
	}
	return net
}

func (n *FeedForward) InputCount() int {
	return n.inputCount
}

func (n *FeedForward) OutputCount() int {
	return n.outputCount
}

func (n *FeedForward) Activation() ActivationFunc {
	return n.activation
}

// Weights returns an independent copy of the network weights.
func (n *FeedForward) Weights() Weights {
	return CloneWeights(n.weights)
}

// Process runs one forward pass and returns the output layer activations.
func (n *FeedForward) Process(input []float64) ([]float64, error) {
	if len(input) != n.inputCount {
		return nil, fmt.Errorf("%w: input has %d values, network expects %d", ErrShapeMismatch, len(input), n.inputCount)
	}

	activations := make([][]float64, len(n.weights)+1)
	activations[0] = append([]float64(nil), input...)
	for li, layer := range n.weights {
		src := activations[li]
		dst := make([]float64, len(layer))
		for di, unit := range layer {
			last := len(unit) - 1
			sum := floats.Dot(unit[:last], src) + unit[last]
			dst[di] = n.activation(sum)
		}
		activations[li+1] = dst
	}

	n.mu.Lock()
	n.trace = activations
	n.mu.Unlock()

	out := activations[len(activations)-1]
	return append([]float64(nil), out...), nil
}

// LastActivations returns a copy of the activations recorded by the most
// recent Process call, input first. It is nil before the first call.
func (n *FeedForward) LastActivations() [][]float64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.trace == nil {
		return nil
	}
	out := make([][]float64, len(n.trace))
	for i, layer := range n.trace {
		out[i] = append([]float64(nil), layer...)
	}
	return out
}

// MakeChild returns a new network with the same activation and every weight
// replaced by mutate(weight). The receiver is not modified.
func (n *FeedForward) MakeChild(mutate evo.MutationFunc) *FeedForward {
	return &FeedForward{
		weights:     MutateWeights(n.weights, mutate),
		activation:  n.activation,
		inputCount:  n.inputCount,
		outputCount: n.outputCount,
	}
}
