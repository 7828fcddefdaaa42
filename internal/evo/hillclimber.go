package evo

// HillClimber keeps a single incumbent and replaces it only with a strictly
// fitter child. It is not safe for concurrent use.
type HillClimber[T Evolveable[T]] struct {
	current      T
	generation   int
	improvements int
}

func NewHillClimber[T Evolveable[T]](initial T) *HillClimber[T] {
	return &HillClimber[T]{current: initial}
}

func (h *HillClimber[T]) Current() T {
	return h.current
}

func (h *HillClimber[T]) Generation() int {
	return h.generation
}

// Improvements counts the ticks whose child replaced the incumbent.
func (h *HillClimber[T]) Improvements() int {
	return h.improvements
}

// Tick runs one generation and returns the fitness of the incumbent after it.
// Ties keep the incumbent.
func (h *HillClimber[T]) Tick(mutate MutationFunc) float64 {
	child := h.current.MakeChild(mutate)
	fitness := h.current.Fitness()
	childFitness := child.Fitness()
	if childFitness > fitness {
		h.current = child
		fitness = childFitness
		h.improvements++
	}
	h.generation++
	return fitness
}
