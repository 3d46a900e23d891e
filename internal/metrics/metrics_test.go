package metrics

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := Mean([]float64{2, 4, 6}); !almostEqual(got, 4) {
		t.Errorf("Mean([2 4 6]) = %v, want 4", got)
	}
	if got := Mean([]float64{-1, 1}); !almostEqual(got, 0) {
		t.Errorf("Mean([-1 1]) = %v, want 0", got)
	}
}

func TestPopStdDevDegenerate(t *testing.T) {
	if got := PopStdDev(nil); got != 0 {
		t.Errorf("PopStdDev([]) = %v, want 0", got)
	}
	if got := PopStdDev([]float64{42}); got != 0 {
		t.Errorf("PopStdDev([x]) = %v, want 0", got)
	}
}

func TestPopStdDev(t *testing.T) {
	// Population stddev of [2, 4, 4, 4, 5, 5, 7, 9] is exactly 2.
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := PopStdDev(xs); !almostEqual(got, 2) {
		t.Errorf("PopStdDev = %v, want 2", got)
	}
}

func TestSharpeLikeFlatReturns(t *testing.T) {
	if got := SharpeLike([]float64{1.5, 1.5, 1.5}); got != 0 {
		t.Errorf("SharpeLike(flat) = %v, want 0", got)
	}
	if got := SharpeLike(nil); got != 0 {
		t.Errorf("SharpeLike(nil) = %v, want 0", got)
	}
}

func TestSharpeLike(t *testing.T) {
	// mean = 2, pop stddev = sqrt(2/3) for [1, 2, 3].
	got := SharpeLike([]float64{1, 2, 3})
	want := 2 / math.Sqrt(2.0/3.0)
	if !almostEqual(got, want) {
		t.Errorf("SharpeLike([1 2 3]) = %v, want %v", got, want)
	}
}

func TestPearsonCorrelationDegenerate(t *testing.T) {
	if got := PearsonCorrelation([]float64{1}, []float64{2}); got != 0 {
		t.Errorf("correlation with 1 pair = %v, want 0", got)
	}
	if got := PearsonCorrelation(nil, nil); got != 0 {
		t.Errorf("correlation with no pairs = %v, want 0", got)
	}
	// Zero variance on one side.
	if got := PearsonCorrelation([]float64{3, 3, 3}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("correlation with flat xs = %v, want 0", got)
	}
}

func TestPearsonCorrelationPerfect(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{2, 4, 6, 8}
	if got := PearsonCorrelation(xs, ys); !almostEqual(got, 1) {
		t.Errorf("perfect positive correlation = %v, want 1", got)
	}
	inv := []float64{8, 6, 4, 2}
	if got := PearsonCorrelation(xs, inv); !almostEqual(got, -1) {
		t.Errorf("perfect negative correlation = %v, want -1", got)
	}
}

func TestPearsonCorrelationUnequalLengths(t *testing.T) {
	// Pairs are truncated to the shorter series.
	xs := []float64{1, 2, 3, 100}
	ys := []float64{2, 4, 6}
	if got := PearsonCorrelation(xs, ys); !almostEqual(got, 1) {
		t.Errorf("truncated correlation = %v, want 1", got)
	}
}
