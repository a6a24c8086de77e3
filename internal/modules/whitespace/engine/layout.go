package engine

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	LayoutNeighbor = "neighbor"
	LayoutLinear   = "linear"
)

// Point is a 2-D layout coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutParams tune the neighbor-embedding projection. The linear projector
// ignores them.
type LayoutParams struct {
	Neighbors int
	MinDist   float64
}

// Projector maps unit-normalized rows to 2-D coordinates for display.
type Projector interface {
	Name() string
	Degraded() bool
	Project(X *mat.Dense, p LayoutParams) ([]Point, error)
}

// LinearProjector is the PCA fallback: rows centred on their mean and
// projected onto the top two right singular vectors. Each axis is signed so
// its largest loading is positive, which keeps output stable across runs.
type LinearProjector struct{}

func (LinearProjector) Name() string   { return LayoutLinear }
func (LinearProjector) Degraded() bool { return true }

func (LinearProjector) Project(X *mat.Dense, _ LayoutParams) ([]Point, error) {
	if X == nil {
		return nil, invalidf("nil matrix")
	}
	n, d := X.Dims()
	out := make([]Point, n)
	if n == 0 {
		return out, nil
	}

	mean := make([]float64, d)
	for i := 0; i < n; i++ {
		floats.Add(mean, X.RawRowView(i))
	}
	floats.Scale(1/float64(n), mean)
	centred := mat.NewDense(n, d, nil)
	centred.Apply(func(_, j int, v float64) float64 { return v - mean[j] }, X)

	var svd mat.SVD
	if !svd.Factorize(centred, mat.SVDThin) {
		return nil, invalidf("svd did not converge")
	}
	var v mat.Dense
	svd.VTo(&v)
	_, comps := v.Dims()
	axes := min(2, comps)
	for c := 0; c < axes; c++ {
		col := mat.Col(nil, c, &v)
		sign := 1.0
		if col[floats.MaxIdx(absAll(col))] < 0 {
			sign = -1
		}
		for i := 0; i < n; i++ {
			val := sign * floats.Dot(centred.RawRowView(i), col)
			if c == 0 {
				out[i].X = val
			} else {
				out[i].Y = val
			}
		}
	}
	return out, nil
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

// NeighborEmbedding is a UMAP-style projection over cosine distance: a fuzzy
// neighbor graph is laid out by stochastic gradient descent with negative
// sampling, starting from the PCA coordinates. Runs are deterministic for a
// given Seed.
type NeighborEmbedding struct {
	Seed   uint64
	Epochs int
}

const (
	defaultLayoutEpochs = 200
	negativeSamples     = 5
	gradientClip        = 4.0
	layoutSpread        = 1.0
	initialExtent       = 10.0
	sigmaIterations     = 64
)

func (NeighborEmbedding) Name() string   { return LayoutNeighbor }
func (NeighborEmbedding) Degraded() bool { return false }

func (e NeighborEmbedding) Project(X *mat.Dense, p LayoutParams) ([]Point, error) {
	if X == nil {
		return nil, invalidf("nil matrix")
	}
	n, _ := X.Dims()
	if n < 3 {
		return LinearProjector{}.Project(X, p)
	}
	k := p.Neighbors
	if k < 2 {
		k = 2
	}
	if k >= n {
		k = n - 1
	}
	g, err := BuildKNN(X, k)
	if err != nil {
		return nil, err
	}
	edges := fuzzyEdges(g)

	a, b := fitCurve(p.MinDist)

	init, err := LinearProjector{}.Project(X, p)
	if err != nil {
		return nil, err
	}
	y := scaleToExtent(init, initialExtent)

	epochs := e.Epochs
	if epochs <= 0 {
		epochs = defaultLayoutEpochs
	}
	var wmax float64
	for _, ed := range edges {
		wmax = math.Max(wmax, ed.w)
	}
	rng := rand.New(rand.NewPCG(e.Seed, e.Seed^0x9e3779b97f4a7c15))
	for epoch := 0; epoch < epochs; epoch++ {
		lr := 1 - float64(epoch)/float64(epochs)
		for _, ed := range edges {
			if wmax <= 0 || rng.Float64() > ed.w/wmax {
				continue
			}
			yi, yj := &y[ed.i], &y[ed.j]
			dx, dy := yi.X-yj.X, yi.Y-yj.Y
			d2 := dx*dx + dy*dy
			if d2 > 0 {
				coef := -2 * a * b * math.Pow(d2, b-1) / (1 + a*math.Pow(d2, b))
				gx, gy := clip(coef*dx), clip(coef*dy)
				yi.X += lr * gx
				yi.Y += lr * gy
				yj.X -= lr * gx
				yj.Y -= lr * gy
			}
			for s := 0; s < negativeSamples; s++ {
				m := rng.IntN(n)
				if m == ed.i {
					continue
				}
				ym := y[m]
				dx, dy := yi.X-ym.X, yi.Y-ym.Y
				d2 := dx*dx + dy*dy
				var gx, gy float64
				if d2 > 0 {
					coef := 2 * b / ((0.001 + d2) * (1 + a*math.Pow(d2, b)))
					gx, gy = clip(coef*dx), clip(coef*dy)
				} else {
					gx, gy = gradientClip, gradientClip
				}
				yi.X += lr * gx
				yi.Y += lr * gy
			}
		}
	}
	return y, nil
}

type weightedEdge struct {
	i, j int
	w    float64
}

// fuzzyEdges turns KNN distances into symmetric membership strengths. Each
// node's nearest non-self neighbour gets strength 1 and the rest decay with a
// per-node bandwidth chosen so strengths sum to log2(k).
func fuzzyEdges(g *NeighborGraph) []weightedEdge {
	n := g.N()
	target := math.Log2(float64(g.K()))
	directed := make(map[[2]int]float64, n*g.K())
	for i := 0; i < n; i++ {
		row := g.Distance[i]
		rho := math.Inf(1)
		for p, j := range g.Index[i] {
			if j != i && row[p] > 0 && row[p] < rho {
				rho = row[p]
			}
		}
		if math.IsInf(rho, 1) {
			rho = 0
		}
		sigma := bandwidth(g.Index[i], row, i, rho, target)
		for p, j := range g.Index[i] {
			if j == i {
				continue
			}
			directed[[2]int{i, j}] = math.Exp(-math.Max(0, row[p]-rho) / sigma)
		}
	}
	edges := make([]weightedEdge, 0, len(directed))
	for key, w := range directed {
		i, j := key[0], key[1]
		back, ok := directed[[2]int{j, i}]
		if ok && j < i {
			continue
		}
		edges = append(edges, weightedEdge{i: i, j: j, w: w + back - w*back})
	}
	sortEdges(edges)
	return edges
}

func bandwidth(index []int, dist []float64, self int, rho, target float64) float64 {
	lo, hi, mid := 0.0, math.Inf(1), 1.0
	for it := 0; it < sigmaIterations; it++ {
		var sum float64
		for p, j := range index {
			if j == self {
				continue
			}
			sum += math.Exp(-math.Max(0, dist[p]-rho) / mid)
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return math.Max(mid, 1e-3)
}

// fitCurve finds a, b so that 1/(1+a·x^(2b)) approximates the target
// low-dimensional similarity for the given minimum distance.
func fitCurve(minDist float64) (float64, float64) {
	const samples = 300
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	for s := range xs {
		x := 3 * layoutSpread * float64(s) / float64(samples-1)
		xs[s] = x
		if x < minDist {
			ys[s] = 1
		} else {
			ys[s] = math.Exp(-(x - minDist) / layoutSpread)
		}
	}
	loss := func(p []float64) float64 {
		a, b := p[0], p[1]
		if a <= 0 || b <= 0 {
			return math.Inf(1)
		}
		var sse float64
		for s, x := range xs {
			r := 1/(1+a*math.Pow(x, 2*b)) - ys[s]
			sse += r * r
		}
		return sse
	}
	res, err := optimize.Minimize(optimize.Problem{Func: loss}, []float64{1.6, 0.9}, nil, &optimize.NelderMead{})
	if err != nil || res == nil || res.X[0] <= 0 || res.X[1] <= 0 {
		return 1.577, 0.895
	}
	return res.X[0], res.X[1]
}

func scaleToExtent(pts []Point, extent float64) []Point {
	var m float64
	for _, p := range pts {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	out := make([]Point, len(pts))
	if m == 0 {
		return out
	}
	f := extent / m
	for i, p := range pts {
		out[i] = Point{X: p.X * f, Y: p.Y * f}
	}
	return out
}

func sortEdges(edges []weightedEdge) {
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})
}

func clip(v float64) float64 { return clamp(v, -gradientClip, gradientClip) }
