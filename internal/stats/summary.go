package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of final fitness across independent climbers.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize uses the population standard deviation. An empty input yields a
// zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return Summary{
		Count: len(values),
		Mean:  mean,
		Std:   math.Sqrt(variance),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
}
