package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NormalizeRows stacks vectors into an n×d matrix with every row scaled to unit
// L2 length. Zero rows stay zero. All vectors must share one dimension.
func NormalizeRows(vectors [][]float64) (*mat.Dense, error) {
	n := len(vectors)
	if n == 0 {
		return nil, invalidf("no vectors")
	}
	d := len(vectors[0])
	if d == 0 {
		return nil, invalidf("empty vector")
	}
	data := make([]float64, 0, n*d)
	for i, v := range vectors {
		if len(v) != d {
			return nil, invalidf("vector %d has dimension %d, want %d", i, len(v), d)
		}
		data = append(data, v...)
	}
	X := mat.NewDense(n, d, data)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		if norm := floats.Norm(row, 2); norm > 0 && !math.IsInf(norm, 0) {
			floats.Scale(1/norm, row)
		}
	}
	return X, nil
}
