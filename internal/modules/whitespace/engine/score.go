package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NodeScores carries the per-node scoring outputs plus the centroid they were
// measured against.
type NodeScores struct {
	Proximity []float64
	Distance  []float64
	Score     []float64
	Focus     []float64
	// Alpha is the decay actually applied; halved when no focus node exists.
	Alpha      float64
	FocusCount int
}

const densityEpsilon = 1e-9

// ScoreParams are the caller-tunable scoring constants.
type ScoreParams struct {
	Alpha float64
	Beta  float64
}

// Score rates every node as whitespace relative to the focus centroid:
// exp(-alpha·‖x-F‖) · (1 - normalized density) · (1 + beta·momentum).
// Focus nodes always score 0.
func Score(X *mat.Dense, focus []bool, density []float64, labels []int, momentum []float64, p ScoreParams) *NodeScores {
	n, d := X.Dims()
	centroid := make([]float64, d)
	count := 0
	for i := 0; i < n; i++ {
		if i < len(focus) && focus[i] {
			floats.Add(centroid, X.RawRowView(i))
			count++
		}
	}
	alpha := p.Alpha
	if count == 0 {
		for i := 0; i < n; i++ {
			floats.Add(centroid, X.RawRowView(i))
		}
		if n > 0 {
			floats.Scale(1/float64(n), centroid)
		}
		alpha *= 0.5
	} else {
		floats.Scale(1/float64(count), centroid)
	}

	out := &NodeScores{
		Proximity:  make([]float64, n),
		Distance:   make([]float64, n),
		Score:      make([]float64, n),
		Focus:      centroid,
		Alpha:      alpha,
		FocusCount: count,
	}
	if n == 0 {
		return out
	}

	// Distances to the centroid in one pass: ‖x-F‖ over every row of X - 1·Fᵀ.
	diff := mat.NewDense(n, d, nil)
	diff.Apply(func(_, j int, v float64) float64 { return v - centroid[j] }, X)

	dmin, dmax := floats.Min(density), floats.Max(density)
	for i := 0; i < n; i++ {
		dist := floats.Norm(diff.RawRowView(i), 2)
		out.Distance[i] = dist
		out.Proximity[i] = math.Exp(-alpha * dist)
		if i < len(focus) && focus[i] {
			continue
		}
		sparsity := 1 - (density[i]-dmin)/(dmax-dmin+densityEpsilon)
		var mom float64
		if l := labels[i]; l >= 0 && l < len(momentum) {
			mom = momentum[l]
		}
		out.Score[i] = out.Proximity[i] * sparsity * (1 + p.Beta*mom)
	}
	return out
}
