// Package metrics provides the pure statistical functions used by the
// simulator and the cohort aggregator. Every function is total: degenerate
// inputs (empty series, zero variance) resolve to 0 rather than NaN, so
// results stay sortable and displayable downstream.
package metrics

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopStdDev returns the population standard deviation of xs. Empty and
// single-element slices both yield 0.
func PopStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// SharpeLike returns mean(returns) / popStdDev(returns), or 0 when the
// standard deviation is 0. Flat returns carry no risk-adjusted signal.
func SharpeLike(returns []float64) float64 {
	sd := PopStdDev(returns)
	if sd == 0 {
		return 0
	}
	return Mean(returns) / sd
}

// PearsonCorrelation returns the Pearson correlation coefficient between xs
// and ys, paired by index and truncated to the shorter length. Fewer than 2
// pairs, or zero variance on either side, yields 0.
func PearsonCorrelation(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0
	}

	mx := Mean(xs[:n])
	my := Mean(ys[:n])

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}
