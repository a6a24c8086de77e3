package engine

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// NeighborGraph holds, per node, the k nearest nodes by cosine distance in
// ascending order. Index[i][0] is normally i itself.
type NeighborGraph struct {
	Distance [][]float64
	Index    [][]int
}

func (g *NeighborGraph) N() int { return len(g.Index) }

func (g *NeighborGraph) K() int {
	if len(g.Index) == 0 {
		return 0
	}
	return len(g.Index[0])
}

// BuildKNN finds the k nearest rows of a unit-normalized matrix. Similarities
// come from one X·Xᵀ product; distances are 1 - similarity clamped to [0, 2].
// On equal distance a node ranks itself first, then lower indices.
func BuildKNN(X *mat.Dense, k int) (*NeighborGraph, error) {
	if X == nil {
		return nil, invalidf("nil matrix")
	}
	n, _ := X.Dims()
	if n < 2 {
		return nil, invalidf("need at least 2 points, got %d", n)
	}
	if k < 1 || k >= n {
		return nil, invalidf("neighbors must be in [1, %d), got %d", n, k)
	}

	var sim mat.Dense
	sim.Mul(X, X.T())

	g := &NeighborGraph{
		Distance: make([][]float64, n),
		Index:    make([][]int, n),
	}
	order := make([]int, n)
	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		row := sim.RawRowView(i)
		for j := 0; j < n; j++ {
			order[j] = j
			dist[j] = clamp(1-row[j], 0, 2)
		}
		dist[i] = 0
		self := i
		sort.Slice(order, func(a, b int) bool {
			ja, jb := order[a], order[b]
			if dist[ja] != dist[jb] {
				return dist[ja] < dist[jb]
			}
			if (ja == self) != (jb == self) {
				return ja == self
			}
			return ja < jb
		})
		g.Index[i] = make([]int, k)
		g.Distance[i] = make([]float64, k)
		for p := 0; p < k; p++ {
			g.Index[i][p] = order[p]
			g.Distance[i][p] = dist[order[p]]
		}
	}
	return g, nil
}

// Density is the mean neighbor similarity 1 - distance over each row,
// including the self entry when present.
func Density(g *NeighborGraph) []float64 {
	out := make([]float64, g.N())
	for i, row := range g.Distance {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, d := range row {
			sum += 1 - d
		}
		out[i] = sum / float64(len(row))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
