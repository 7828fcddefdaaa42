package evo

import "errors"

var ErrNotImplemented = errors.New("not implemented")

// Population is reserved for multi-individual search. It has no behaviour yet.
type Population[T Evolveable[T]] struct{}

func NewPopulation[T Evolveable[T]](_ []T) (*Population[T], error) {
	return nil, ErrNotImplemented
}

func (p *Population[T]) Tick(_ MutationFunc) (float64, error) {
	return 0, ErrNotImplemented
}

func (p *Population[T]) Best() (T, error) {
	var zero T
	return zero, ErrNotImplemented
}
