package scape

import (
	"errors"
	"fmt"
	"math"

	"evolvenet/internal/evo"
)

var ErrInvalidRange = errors.New("invalid range")

// RangeSpec describes the domain sampled when scoring a fitter.
type RangeSpec struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

func NewRangeSpec(min, max float64, count int) (RangeSpec, error) {
	r := RangeSpec{Min: min, Max: max, Count: count}
	if err := r.Validate(); err != nil {
		return RangeSpec{}, err
	}
	return r, nil
}

func (r RangeSpec) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: bounds must be finite, got [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %g exceeds max %g", ErrInvalidRange, r.Min, r.Max)
	}
	if r.Count <= 0 {
		return fmt.Errorf("%w: sample count must be > 0, got %d", ErrInvalidRange, r.Count)
	}
	return nil
}

// Sample draws one value uniformly from [Min, Max].
func (r RangeSpec) Sample(src evo.Source) float64 {
	return evo.Uniform(src, r.Min, r.Max)
}
