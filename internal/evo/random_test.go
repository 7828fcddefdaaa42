package evo

import (
	"math/rand"
	"testing"
)

func TestUniformStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		got := Uniform(rng, -2, 3)
		if got < -2 || got > 3 {
			t.Fatalf("sample out of range: %f", got)
		}
	}
}

func TestSmallRandomStepBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	mutate := SmallRandom(rng)
	for i := 0; i < 1000; i++ {
		got := mutate(10)
		if got < 10-SmallStep || got > 10+SmallStep {
			t.Fatalf("small random step out of bounds: %f", got)
		}
	}
}

func TestPerturbNegativeSpread(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mutate := Perturb(rng, -0.5)
	for i := 0; i < 100; i++ {
		got := mutate(0)
		if got < -0.5 || got > 0.5 {
			t.Fatalf("perturb out of bounds: %f", got)
		}
	}
}

func TestSeededMutationIsReproducible(t *testing.T) {
	a := Perturb(rand.New(rand.NewSource(42)), 1)
	b := Perturb(rand.New(rand.NewSource(42)), 1)
	for i := 0; i < 10; i++ {
		if x, y := a(0), b(0); x != y {
			t.Fatalf("seeded mutations diverged at %d: %f vs %f", i, x, y)
		}
	}
}
