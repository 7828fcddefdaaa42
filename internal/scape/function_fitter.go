package scape

import (
	"errors"
	"fmt"
	"math"
	"time"

	"evolvenet/internal/evo"
	"evolvenet/internal/nn"
)

// FunctionFitter scores a single-input network by how closely its first
// output follows a target function over a sampled range.
//
// Fitness is stochastic: every call draws a fresh sample set from the range.
type FunctionFitter struct {
	net    *nn.FeedForward
	target TargetFunc
	rng    RangeSpec
	src    evo.Source
	now    func() time.Time
}

func NewFunctionFitter(net *nn.FeedForward, target TargetFunc, rng RangeSpec, src evo.Source) (*FunctionFitter, error) {
	if net == nil {
		return nil, errors.New("network is required")
	}
	if target == nil {
		return nil, errors.New("target function is required")
	}
	if src == nil {
		return nil, errors.New("random source is required")
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if net.InputCount() != 1 {
		return nil, fmt.Errorf("%w: function fitter requires one input, network has %d", nn.ErrShapeMismatch, net.InputCount())
	}
	return &FunctionFitter{
		net:    net,
		target: target,
		rng:    rng,
		src:    src,
		now:    time.Now,
	}, nil
}

func (f *FunctionFitter) Network() *nn.FeedForward {
	return f.net
}

func (f *FunctionFitter) Target() TargetFunc {
	return f.target
}

func (f *FunctionFitter) Range() RangeSpec {
	return f.rng
}

// Fitness returns the negated mean squared error over Range().Count fresh
// samples. Zero is a perfect fit.
func (f *FunctionFitter) Fitness() float64 {
	fitness, err := f.LogFitness("", nil)
	if err != nil {
		return math.Inf(-1)
	}
	return fitness
}

// LogFitness computes Fitness and writes every sample to sink under prefix.
// All rows of one call share a timestamp.
func (f *FunctionFitter) LogFitness(prefix string, sink SampleSink) (float64, error) {
	stamp := f.now()
	input := make([]float64, 1)

	var total float64
	for i := 0; i < f.rng.Count; i++ {
		sample := f.rng.Sample(f.src)
		want := f.target(sample)
		input[0] = sample
		out, err := f.net.Process(input)
		if err != nil {
			return 0, err
		}
		got := out[0]
		if sink != nil {
			record := SampleRecord{Prefix: prefix, Timestamp: stamp, Sample: sample, Target: want, Output: got}
			if err := sink.WriteSample(record); err != nil {
				return 0, fmt.Errorf("write sample: %w", err)
			}
		}
		diff := want - got
		total += diff * diff
	}
	return -total / float64(f.rng.Count), nil
}

// WithSource returns a fitter over the same network that draws its samples
// from src. The receiver keeps its own source.
func (f *FunctionFitter) WithSource(src evo.Source) *FunctionFitter {
	if src == nil {
		return f
	}
	return &FunctionFitter{
		net:    f.net,
		target: f.target,
		rng:    f.rng,
		src:    src,
		now:    f.now,
	}
}

// MakeChild wraps a mutated copy of the network with the same target, range
// and random source.
func (f *FunctionFitter) MakeChild(mutate evo.MutationFunc) *FunctionFitter {
	return &FunctionFitter{
		net:    f.net.MakeChild(mutate),
		target: f.target,
		rng:    f.rng,
		src:    f.src,
		now:    f.now,
	}
}
