package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

// twoClusters returns three points near e1 followed by three near e2.
func twoClusters(t *testing.T) *mat.Dense {
	t.Helper()
	X, err := NormalizeRows([][]float64{
		{1, 0.05, 0},
		{1, 0, 0.05},
		{1, -0.05, 0},
		{0.05, 1, 0},
		{0, 1, 0.05},
		{-0.05, 1, 0},
	})
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	return X
}

func basis(t *testing.T, n int) *mat.Dense {
	t.Helper()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][i] = 1
	}
	X, err := NormalizeRows(rows)
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	return X
}

func TestNormalizeRows(t *testing.T) {
	X, err := NormalizeRows([][]float64{{3, 4}, {0, 0}})
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if got := X.At(0, 0); math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("row 0: got=%v want=0.6", got)
	}
	if X.At(1, 0) != 0 || X.At(1, 1) != 0 {
		t.Fatalf("zero row changed")
	}
	if _, err := NormalizeRows([][]float64{{1, 2}, {1}}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("ragged: err=%v", err)
	}
	if _, err := NormalizeRows(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("empty: err=%v", err)
	}
}

func TestBuildKNNShapesAndRange(t *testing.T) {
	X := twoClusters(t)
	n, _ := X.Dims()
	for k := 1; k < n; k++ {
		g, err := BuildKNN(X, k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if g.N() != n || g.K() != k {
			t.Fatalf("k=%d: shape got=(%d,%d)", k, g.N(), g.K())
		}
		for i := 0; i < n; i++ {
			if g.Index[i][0] != i {
				t.Fatalf("k=%d: node %d first neighbour=%d", k, i, g.Index[i][0])
			}
			for p, d := range g.Distance[i] {
				if d < 0 || d > 2 {
					t.Fatalf("k=%d: distance[%d][%d]=%v out of range", k, i, p, d)
				}
				if p > 0 && d < g.Distance[i][p-1] {
					t.Fatalf("k=%d: row %d not ascending", k, i)
				}
			}
		}
	}
}

func TestBuildKNNRejectsBadParameters(t *testing.T) {
	X := twoClusters(t)
	cases := []struct {
		name string
		X    *mat.Dense
		k    int
	}{
		{"k equals n", X, 6},
		{"k zero", X, 0},
		{"single point", mat.NewDense(1, 2, []float64{1, 0}), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BuildKNN(tc.X, tc.k); !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("err=%v want ErrInvalidParameter", err)
			}
		})
	}
}

func TestDensityHigherForTighterNeighbourhoods(t *testing.T) {
	X, err := NormalizeRows([][]float64{
		{1, 0.05, 0, 0},
		{1, 0, 0.05, 0},
		{1, 0, 0, 0.05},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	g, err := BuildKNN(X, 2)
	if err != nil {
		t.Fatalf("BuildKNN: %v", err)
	}
	dens := Density(g)
	for tight := 0; tight < 3; tight++ {
		for loose := 3; loose < 6; loose++ {
			if dens[tight] <= dens[loose] {
				t.Fatalf("density tight[%d]=%v <= loose[%d]=%v", tight, dens[tight], loose, dens[loose])
			}
		}
		if dens[tight] > 1 || dens[tight] < 0.99 {
			t.Fatalf("tight density %v not close to 1", dens[tight])
		}
	}
}

func TestClusterersSeparateTwoGroups(t *testing.T) {
	g, err := BuildKNN(twoClusters(t), 3)
	if err != nil {
		t.Fatalf("BuildKNN: %v", err)
	}
	want := []int{0, 0, 0, 1, 1, 1}
	for _, c := range []Clusterer{ModularityClusterer{Seed: 42}, ThresholdClusterer{}} {
		t.Run(c.Name(), func(t *testing.T) {
			got := c.Cluster(g, 0.5)
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("labels: got=%v want=%v", got, want)
				}
			}
			if ClusterCount(got) != 2 {
				t.Fatalf("ClusterCount=%d", ClusterCount(got))
			}
		})
	}
}

func TestClusterersOrthogonalPointsAreSingletons(t *testing.T) {
	g, err := BuildKNN(basis(t, 4), 2)
	if err != nil {
		t.Fatalf("BuildKNN: %v", err)
	}
	for _, c := range []Clusterer{ModularityClusterer{Seed: 1}, ThresholdClusterer{Threshold: 0.75}} {
		got := c.Cluster(g, 1)
		for i, l := range got {
			if l != i {
				t.Fatalf("%s: labels=%v want singletons", c.Name(), got)
			}
		}
	}
}

func TestModularityClustererDeterministic(t *testing.T) {
	g, err := BuildKNN(twoClusters(t), 4)
	if err != nil {
		t.Fatalf("BuildKNN: %v", err)
	}
	c := ModularityClusterer{Seed: 7}
	a, b := c.Cluster(g, 0.5), c.Cluster(g, 0.5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic labels: %v vs %v", a, b)
		}
	}
}

func day(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestMomentum(t *testing.T) {
	cases := []struct {
		name   string
		labels []int
		dates  []*time.Time
		want   []float64
	}{
		{
			name:   "recent cluster dominates",
			labels: []int{0, 0, 1, 1, 2},
			dates:  []*time.Time{day("2024-06-30"), day("2024-05-01"), day("2023-01-01"), day("2023-02-01"), nil},
			want:   []float64{1, 0, 0},
		},
		{
			name:   "mixed clusters normalized by max",
			labels: []int{0, 0, 1, 1},
			dates:  []*time.Time{day("2024-06-30"), day("2023-06-30"), day("2024-06-01"), day("2024-04-15")},
			want:   []float64{0.375, 1},
		},
		{
			name:   "cutoff is inclusive",
			labels: []int{0, 1},
			dates:  []*time.Time{day("2024-04-01"), day("2024-06-30")},
			want:   []float64{1, 1},
		},
		{
			name:   "undated items count as stale",
			labels: []int{0, 0, 0, 1, 1},
			dates:  []*time.Time{day("2024-06-30"), nil, nil, day("2024-06-01"), day("2024-05-01")},
			want:   []float64{0.25, 1},
		},
		{
			name:   "no dates",
			labels: []int{0, 1},
			dates:  []*time.Time{nil, nil},
			want:   []float64{0, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Momentum(tc.labels, tc.dates)
			if len(got) != len(tc.want) {
				t.Fatalf("len: got=%d want=%d", len(got), len(tc.want))
			}
			for c := range got {
				if got[c] < 0 || got[c] > 1 {
					t.Fatalf("momentum[%d]=%v out of [0,1]", c, got[c])
				}
				if math.Abs(got[c]-tc.want[c]) > 1e-9 {
					t.Fatalf("momentum: got=%v want=%v", got, tc.want)
				}
			}
		})
	}
}

func TestScoreZeroForFocusNodes(t *testing.T) {
	X := twoClusters(t)
	g, err := BuildKNN(X, 2)
	if err != nil {
		t.Fatalf("BuildKNN: %v", err)
	}
	dens := Density(g)
	labels := []int{0, 0, 0, 1, 1, 1}
	mom := []float64{1, 0.5}
	focus := []bool{true, false, false, false, true, false}

	s := Score(X, focus, dens, labels, mom, ScoreParams{Alpha: 0.8, Beta: 0.5})
	if s.FocusCount != 2 || s.Alpha != 0.8 {
		t.Fatalf("focus count=%d alpha=%v", s.FocusCount, s.Alpha)
	}
	for i, f := range focus {
		if f && s.Score[i] != 0 {
			t.Fatalf("focus node %d score=%v", i, s.Score[i])
		}
		if want := math.Exp(-0.8 * s.Distance[i]); math.Abs(s.Proximity[i]-want) > 1e-12 {
			t.Fatalf("proximity[%d]: got=%v want=%v", i, s.Proximity[i], want)
		}
		if s.Score[i] < 0 {
			t.Fatalf("score[%d] negative", i)
		}
	}
}

func TestScoreWithoutFocusHalvesAlpha(t *testing.T) {
	X := twoClusters(t)
	dens := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4}
	s := Score(X, make([]bool, 6), dens, []int{0, 0, 0, 1, 1, 1}, []float64{0, 0}, ScoreParams{Alpha: 0.8, Beta: 0.5})
	if s.FocusCount != 0 || math.Abs(s.Alpha-0.4) > 1e-12 {
		t.Fatalf("alpha=%v focus=%d", s.Alpha, s.FocusCount)
	}
	// The densest node has zero sparsity, the sparsest is boosted only by proximity.
	if s.Score[0] > 1e-6 {
		t.Fatalf("densest node score=%v want ~0", s.Score[0])
	}
	if s.Score[5] <= s.Score[1] {
		t.Fatalf("sparser node should outscore denser one: %v", s.Score)
	}
}

func TestLinearProjectorCollinear(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 0, 2, 0, 3, 0})
	pts, err := LinearProjector{}.Project(X, LayoutParams{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	want := []float64{-1, 0, 1}
	for i, p := range pts {
		if math.Abs(p.X-want[i]) > 1e-9 || math.Abs(p.Y) > 1e-9 {
			t.Fatalf("point %d: got=%+v want x=%v y=0", i, p, want[i])
		}
	}
}

func TestNeighborEmbeddingDeterministic(t *testing.T) {
	X := twoClusters(t)
	p := LayoutParams{Neighbors: 3, MinDist: 0.1}
	proj := NeighborEmbedding{Seed: 42, Epochs: 50}
	a, err := proj.Project(X, p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	b, err := proj.Project(X, p)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(a) != 6 {
		t.Fatalf("len=%d", len(a))
	}
	for i := range a {
		if math.IsNaN(a[i].X) || math.IsNaN(a[i].Y) || math.IsInf(a[i].X, 0) || math.IsInf(a[i].Y, 0) {
			t.Fatalf("point %d not finite: %+v", i, a[i])
		}
		if a[i] != b[i] {
			t.Fatalf("point %d differs across runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewCapabilities(t *testing.T) {
	caps, err := NewCapabilities(nil, "", "", 42)
	if err != nil {
		t.Fatalf("NewCapabilities: %v", err)
	}
	if caps.Clusterer.Degraded() || caps.Projector.Degraded() {
		t.Fatalf("defaults should be primary strategies")
	}
	if caps.ProjectorFor(false).Name() != LayoutLinear || caps.ProjectorFor(true).Name() != LayoutNeighbor {
		t.Fatalf("ProjectorFor picked wrong strategy")
	}

	fallback, err := NewCapabilities(nil, "threshold", "linear", 42)
	if err != nil {
		t.Fatalf("NewCapabilities: %v", err)
	}
	if !fallback.Clusterer.Degraded() || !fallback.Projector.Degraded() {
		t.Fatalf("fallback strategies should report degraded")
	}
	if _, err := NewCapabilities(nil, "leiden", "", 0); err == nil {
		t.Fatalf("unknown clustering accepted")
	}
	if _, err := NewCapabilities(nil, "", "tsne", 0); err == nil {
		t.Fatalf("unknown layout accepted")
	}
}
