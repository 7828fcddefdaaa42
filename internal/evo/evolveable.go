package evo

// MutationFunc perturbs a single scalar parameter.
type MutationFunc func(float64) float64

// Mutateable values can spawn a variation of themselves without modifying the
// parent.
type Mutateable[T any] interface {
	MakeChild(mutate MutationFunc) T
}

// Evolveable values can be driven by the search strategies in this package.
// Higher fitness is better.
type Evolveable[T any] interface {
	Mutateable[T]
	Fitness() float64
}

func IdentityMutation(w float64) float64 {
	return w
}
