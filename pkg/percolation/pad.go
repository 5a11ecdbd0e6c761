package percolation

import (
	"math"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// Pad returns a copy of values extended to length n with sentinel. Longer
// inputs are returned unchanged (copied).
func Pad[T number](values []T, n int, sentinel T) []T {
	out := make([]T, max(n, len(values)))
	copy(out, values)
	for i := len(values); i < len(out); i++ {
		out[i] = sentinel
	}
	return out
}

// PadNaN pads a float series with NaN.
func PadNaN(values []float64, n int) []float64 {
	return Pad(values, n, math.NaN())
}

// Map applies fn to every element.
func Map[T, U any](values []T, fn func(T) U) []U {
	out := make([]U, len(values))
	for i, v := range values {
		out[i] = fn(v)
	}
	return out
}
