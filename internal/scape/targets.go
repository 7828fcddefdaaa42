package scape

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrTargetNotFound = errors.New("target function not found")

// TargetFunc is the scalar function a fitter tries to reproduce.
type TargetFunc func(x float64) float64

var targets = map[string]TargetFunc{
	"identity": func(x float64) float64 { return x },
	"linear":   func(x float64) float64 { return 2*x + 0.5 },
	"square":   func(x float64) float64 { return x * x },
	"abs":      math.Abs,
	"sin":      math.Sin,
	"cos":      math.Cos,
	"tanh":     math.Tanh,
}

func GetTarget(name string) (TargetFunc, error) {
	fn, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}
	return fn, nil
}

func ListTargets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
