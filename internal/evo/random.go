package evo

// Source yields uniform values in [0, 1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// SmallStep is the spread of SmallRandom.
const SmallStep = 0.05

// Uniform draws from [min, max) using src.
func Uniform(src Source, min, max float64) float64 {
	return src.Float64()*(max-min) + min
}

// Perturb returns a mutation that nudges each weight by a uniform value in
// [-spread, spread).
func Perturb(src Source, spread float64) MutationFunc {
	if spread < 0 {
		spread = -spread
	}
	return func(w float64) float64 {
		return w + Uniform(src, -spread, spread)
	}
}

func SmallRandom(src Source) MutationFunc {
	return Perturb(src, SmallStep)
}

// Constant returns a mutation adding delta to every weight.
func Constant(delta float64) MutationFunc {
	return func(w float64) float64 {
		return w + delta
	}
}
