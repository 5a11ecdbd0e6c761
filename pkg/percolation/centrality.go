package percolation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Spread summarises one centrality snapshot.
type Spread struct {
	Mean float64
	Std  float64 // population standard deviation
	CV   float64 // Std / Mean
	Sum  float64
}

// DistributionSpread ignores NaN entries. With fewer than two values every
// field is NaN; CV is NaN when the mean is zero.
func DistributionSpread(values []float64) Spread {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 2 {
		nan := math.NaN()
		return Spread{Mean: nan, Std: nan, CV: nan, Sum: nan}
	}

	sp := Spread{CV: math.NaN()}
	sp.Mean, sp.Std = stat.PopMeanStdDev(valid, nil)
	if sp.Mean != 0 {
		sp.CV = sp.Std / sp.Mean
	}
	for _, v := range valid {
		sp.Sum += v
	}
	return sp
}

// Susceptibility takes a steps × nodes matrix and returns, for every node
// column, Σ_t (b(t+1) − b(t))². Pairs with a NaN side are skipped, so a
// column without any valid pair sums to 0. Rows may be ragged; missing cells
// count as NaN.
func Susceptibility(matrix [][]float64) []float64 {
	cols := 0
	for _, row := range matrix {
		cols = max(cols, len(row))
	}

	out := make([]float64, cols)
	for i := range out {
		sum := 0.0
		for t := 0; t+1 < len(matrix); t++ {
			a, b := cell(matrix[t], i), cell(matrix[t+1], i)
			if math.IsNaN(a) || math.IsNaN(b) {
				continue
			}
			d := b - a
			sum += d * d
		}
		out[i] = sum
	}
	return out
}

// OrderParameter takes a steps × nodes matrix and returns, per step, the
// total centrality Σ_i b_i(t) and the "spin" sum Σ_i b_i(t)/b_i(0). NaN cells
// count as zero, as do nodes whose first value is zero or NaN.
func OrderParameter(matrix [][]float64) (sum, spin []float64) {
	sum = make([]float64, len(matrix))
	spin = make([]float64, len(matrix))
	if len(matrix) == 0 {
		return sum, spin
	}

	first := matrix[0]
	for t, row := range matrix {
		for i, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum[t] += v
			if b0 := cell(first, i); !math.IsNaN(b0) && b0 != 0 {
				spin[t] += v / b0
			}
		}
	}
	return sum, spin
}

func cell(row []float64, i int) float64 {
	if i >= len(row) {
		return math.NaN()
	}
	return row[i]
}
