package stats

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3})
	if s.Count != 3 || s.Min != 1 || s.Max != 3 {
		t.Fatalf("unexpected summary bounds: %+v", s)
	}
	if math.Abs(s.Mean-2) > 1e-12 {
		t.Fatalf("unexpected mean: %f", s.Mean)
	}
	if math.Abs(s.Std-math.Sqrt(2.0/3.0)) > 1e-12 {
		t.Fatalf("unexpected std: %f", s.Std)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}
