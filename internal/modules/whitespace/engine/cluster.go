package engine

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// Clusterer partitions a neighbor graph. Labels are contiguous from 0 and
// every node gets exactly one.
type Clusterer interface {
	Name() string
	// Degraded is true for coarse fallback partitions.
	Degraded() bool
	Cluster(g *NeighborGraph, resolution float64) []int
}

const (
	ClusteringModularity = "modularity"
	ClusteringThreshold  = "threshold"
)

// ModularityClusterer runs Louvain modularity optimisation over the
// similarity-weighted KNN graph. Higher resolution yields more, smaller
// communities.
type ModularityClusterer struct {
	Seed uint64
}

func (ModularityClusterer) Name() string   { return ClusteringModularity }
func (ModularityClusterer) Degraded() bool { return false }

func (c ModularityClusterer) Cluster(g *NeighborGraph, resolution float64) []int {
	n := g.N()
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < n; i++ {
		wg.AddNode(simple.Node(i))
	}
	edges := 0
	forEachEdge(g, func(i, j int, sim float64) {
		// Modularity needs positive weights; orthogonal or opposed pairs carry
		// no affinity.
		if sim <= 0 {
			return
		}
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(i), simple.Node(j), sim))
		edges++
	})
	if edges == 0 {
		return singletons(n)
	}
	if resolution <= 0 {
		resolution = 1
	}
	reduced := community.Modularize(wg, resolution, rand.NewPCG(c.Seed, c.Seed))

	groups := make([][]int, 0)
	for _, comm := range reduced.Communities() {
		members := make([]int, 0, len(comm))
		for _, node := range comm {
			members = append(members, int(node.ID()))
		}
		if len(members) == 0 {
			continue
		}
		sort.Ints(members)
		groups = append(groups, members)
	}
	// Stable numbering: communities ordered by their smallest member.
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for label, members := range groups {
		for _, m := range members {
			labels[m] = label
		}
	}
	next := len(groups)
	for i, l := range labels {
		if l < 0 {
			labels[i] = next
			next++
		}
	}
	return labels
}

// ThresholdClusterer is the fallback partition: connected components over KNN
// edges whose similarity reaches Threshold. It ignores resolution and tends
// to merge neighbouring topics into one large component.
type ThresholdClusterer struct {
	Threshold float64
}

const DefaultSimilarityThreshold = 0.75

func (ThresholdClusterer) Name() string   { return ClusteringThreshold }
func (ThresholdClusterer) Degraded() bool { return true }

func (c ThresholdClusterer) Cluster(g *NeighborGraph, _ float64) []int {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	n := g.N()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(a int) int {
		for parent[a] != a {
			parent[a] = parent[parent[a]]
			a = parent[a]
		}
		return a
	}
	forEachEdge(g, func(i, j int, sim float64) {
		if sim < threshold {
			return
		}
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	})

	roots := map[int]bool{}
	for i := 0; i < n; i++ {
		roots[find(i)] = true
	}
	sorted := make([]int, 0, len(roots))
	for r := range roots {
		sorted = append(sorted, r)
	}
	sort.Ints(sorted)
	label := make(map[int]int, len(sorted))
	for k, r := range sorted {
		label[r] = k
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = label[find(i)]
	}
	return out
}

// forEachEdge visits every non-self KNN pair once, as (min, max), with its
// similarity. A pair listed from both ends keeps the first weight seen.
func forEachEdge(g *NeighborGraph, fn func(i, j int, sim float64)) {
	seen := make(map[[2]int]struct{}, g.N()*g.K())
	for i, row := range g.Index {
		for p, j := range row {
			if i == j {
				continue
			}
			a, b := i, j
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			fn(a, b, 1-g.Distance[i][p])
		}
	}
}

func singletons(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ClusterCount is 1 + the largest label, or 0 for no labels.
func ClusterCount(labels []int) int {
	hi := -1
	for _, l := range labels {
		if l > hi {
			hi = l
		}
	}
	return hi + 1
}
