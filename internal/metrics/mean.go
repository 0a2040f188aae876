package metrics

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// GeometricMean returns the nth root of the product of the positive values.
// Non-positive values have no logarithm and are ignored; an input without any
// positive value yields 0.
func GeometricMean(values []float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		sum += math.Log(v)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Exp(sum / float64(n))
}
