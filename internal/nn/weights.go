package nn

import (
	"fmt"

	"evolvenet/internal/evo"
)

// Weights is indexed by layer, destination neuron and source neuron. The last
// entry of every row is the bias weight.
type Weights [][][]float64

// MutateWeights returns a structurally identical copy of weights with every
// scalar replaced by mutate(w). No slice of the result aliases the source.
func MutateWeights(weights Weights, mutate evo.MutationFunc) Weights {
	out := make(Weights, len(weights))
	for li, layer := range weights {
		newLayer := make([][]float64, len(layer))
		for di, unit := range layer {
			newUnit := make([]float64, len(unit))
			for si, w := range unit {
				newUnit[si] = mutate(w)
			}
			newLayer[di] = newUnit
		}
		out[li] = newLayer
	}
	return out
}

func CloneWeights(weights Weights) Weights {
	return MutateWeights(weights, evo.IdentityMutation)
}

// ValidateWeights checks that every row in a layer has one weight per neuron
// of the previous layer plus the bias weight.
func ValidateWeights(weights Weights) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: network has no layers", ErrShapeMismatch)
	}
	for li, layer := range weights {
		if len(layer) == 0 {
			return fmt.Errorf("%w: layer %d has no neurons", ErrShapeMismatch, li)
		}
		want := len(layer[0])
		if li > 0 {
			want = len(weights[li-1]) + 1
		}
		if want < 1 {
			return fmt.Errorf("%w: layer %d neuron 0 has no bias weight", ErrShapeMismatch, li)
		}
		for di, unit := range layer {
			if len(unit) != want {
				return fmt.Errorf("%w: layer %d neuron %d has %d weights, want %d", ErrShapeMismatch, li, di, len(unit), want)
			}
		}
	}
	return nil
}

// Layout returns the neuron count per layer boundary, inputs first.
func Layout(weights Weights) []int {
	if len(weights) == 0 || len(weights[0]) == 0 {
		return nil
	}
	out := make([]int, 0, len(weights)+1)
	out = append(out, len(weights[0][0])-1)
	for _, layer := range weights {
		out = append(out, len(layer))
	}
	return out
}

// RandomWeights builds weights for layout (inputs, hidden..., outputs) with
// every weight drawn from [-0.5, 0.5).
func RandomWeights(layout []int, src evo.Source) (Weights, error) {
	if len(layout) < 2 {
		return nil, fmt.Errorf("%w: layout needs inputs and outputs, got %v", ErrShapeMismatch, layout)
	}
	if src == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if layout[0] < 0 {
		return nil, fmt.Errorf("%w: negative input count %d", ErrShapeMismatch, layout[0])
	}
	for i, size := range layout[1:] {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d must have at least one neuron", ErrShapeMismatch, i)
		}
	}

	weights := make(Weights, len(layout)-1)
	for li := range weights {
		layer := make([][]float64, layout[li+1])
		for di := range layer {
			unit := make([]float64, layout[li]+1)
			for si := range unit {
				unit[si] = src.Float64() - 0.5
			}
			layer[di] = unit
		}
		weights[li] = layer
	}
	return weights, nil
}
