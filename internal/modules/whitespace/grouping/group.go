package grouping

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/signals"
)

// Mode picks the grouping key.
type Mode string

const (
	ByAssignee Mode = "assignee"
	ByCluster  Mode = "cluster"
)

const DefaultMaxGroups = 5

// Group is one analysed population, nodes ordered oldest first (undated
// first), then by id.
type Group struct {
	Label string
	Nodes []NodeDatum
}

func clusterLabel(id int) string { return fmt.Sprintf("Cluster %d", id) }

// Partition splits nodes by assignee label or cluster id and keeps the
// maxGroups largest groups, ties broken by case-insensitive label.
func Partition(nodes []NodeDatum, mode Mode, maxGroups int) []Group {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}
	byKey := map[string][]NodeDatum{}
	for _, n := range nodes {
		key := n.Assignee
		if mode == ByCluster {
			key = clusterLabel(n.ClusterID)
		}
		byKey[key] = append(byKey[key], n)
	}
	groups := make([]Group, 0, len(byKey))
	for label, members := range byKey {
		sort.SliceStable(members, func(a, b int) bool {
			da, db := members[a].PubDate, members[b].PubDate
			switch {
			case da == nil && db != nil:
				return true
			case da != nil && db == nil:
				return false
			case da != nil && !da.Equal(*db):
				return da.Before(*db)
			}
			return members[a].PubID < members[b].PubID
		})
		groups = append(groups, Group{Label: label, Nodes: members})
	}
	sort.Slice(groups, func(a, b int) bool {
		if len(groups[a].Nodes) != len(groups[b].Nodes) {
			return len(groups[a].Nodes) > len(groups[b].Nodes)
		}
		la, lb := strings.ToLower(groups[a].Label), strings.ToLower(groups[b].Label)
		if la != lb {
			return la < lb
		}
		return groups[a].Label < groups[b].Label
	})
	if len(groups) > maxGroups {
		groups = groups[:maxGroups]
	}
	return groups
}

// Cohort holds the population-wide thresholds every group is judged against.
type Cohort struct {
	Scores      []float64 `json:"-"`
	HighScore   float64   `json:"high_ws_threshold"`
	LowScore    float64   `json:"low_ws_threshold"`
	HighDensity float64   `json:"high_density_threshold"`
}

const (
	highScoreQ   = 0.90
	lowScoreQ    = 0.40
	highDensityQ = 0.75
)

func NewCohort(nodes []NodeDatum) Cohort {
	scores := make([]float64, len(nodes))
	dens := make([]float64, len(nodes))
	for i, n := range nodes {
		scores[i], dens[i] = n.Score, n.Density
	}
	if len(scores) == 0 {
		scores, dens = []float64{0}, []float64{0}
	}
	return Cohort{
		Scores:      scores,
		HighScore:   signals.Quantile(highScoreQ, scores),
		LowScore:    signals.Quantile(lowScoreQ, scores),
		HighDensity: signals.Quantile(highDensityQ, dens),
	}
}

// Context is the read-only state shared by every group evaluation.
type Context struct {
	Graph    *engine.NeighborGraph
	Labels   []int
	Momentum []float64
	Cohort   Cohort
	DateFrom *time.Time
	DateTo   *time.Time
	Mode     Mode
}

// SignalOutcome pairs a detector result with the nodes it points at.
type SignalOutcome struct {
	signals.Result
	NodeIDs []string
}

// GroupResult is the immutable evaluation of one group.
type GroupResult struct {
	Label        string
	Insufficient bool
	Window       Window
	Series       Series
	Bridge       signals.BridgeInputs
	Signals      []SignalOutcome
}

const (
	maxSignalNodes  = 6
	fallbackNodes   = 5
	minGapProximity = 0.4
)

// Evaluate runs the four detectors for every group. A group without a usable
// window reports insufficient history; a window that catches no nodes drops
// the group.
func Evaluate(groups []Group, c Context) []GroupResult {
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		if r, ok := evaluateGroup(g, c); ok {
			out = append(out, r)
		}
	}
	return out
}

func evaluateGroup(g Group, c Context) (GroupResult, bool) {
	w, ok := WindowBounds(g.Nodes, c.DateFrom, c.DateTo)
	if !ok {
		msg := "Not enough history for this assignee."
		if c.Mode == ByCluster {
			msg = "Not enough history for this cluster."
		}
		res := GroupResult{Label: g.Label, Insufficient: true}
		for _, kind := range signals.Order {
			res.Signals = append(res.Signals, SignalOutcome{Result: signals.Insufficient(kind, msg), NodeIDs: []string{}})
		}
		return res, true
	}
	s := BuildSeries(g.Nodes, w)
	if s.Samples == 0 {
		return GroupResult{}, false
	}

	focus := signals.DetectFocusShift(s.Distance, s.Share, s.Samples)
	gap := signals.DetectEmergingGap(s.Score, c.Cohort.Scores, s.NeighborMomentum())
	crowd := signals.DetectCrowdOut(s.Score, s.Density)
	bridgeIn, bridgeNodes := ComputeBridgeInputs(g.Nodes, c.Labels, c.Graph, c.Momentum)
	bridge := signals.DetectBridge(bridgeIn)

	byKind := map[signals.Kind]SignalOutcome{
		signals.FocusShift:  {Result: focus, NodeIDs: focusNodes(s.Latest)},
		signals.EmergingGap: {Result: gap, NodeIDs: gapNodes(g.Nodes, c.Cohort)},
		signals.CrowdOut:    {Result: crowd, NodeIDs: crowdNodes(s.Latest, c.Cohort)},
		signals.Bridge:      {Result: bridge, NodeIDs: ids(bridgeNodes)},
	}
	res := GroupResult{Label: g.Label, Window: w, Series: s, Bridge: bridgeIn}
	for _, kind := range signals.Order {
		res.Signals = append(res.Signals, byKind[kind])
	}
	return res, true
}

// ComputeBridgeInputs measures the interface between the two clusters holding
// most of the group's nodes. It also returns the group nodes with a KNN
// neighbour in the other dominant cluster.
func ComputeBridgeInputs(nodes []NodeDatum, labels []int, g *engine.NeighborGraph, momentum []float64) (signals.BridgeInputs, []NodeDatum) {
	none := signals.BridgeInputs{Openness: 1}
	if len(nodes) == 0 || g == nil {
		return none, nil
	}
	counts := map[int]int{}
	order := []int{}
	for _, n := range nodes {
		cid := labels[n.Index]
		if counts[cid] == 0 {
			order = append(order, cid)
		}
		counts[cid]++
	}
	if len(order) < 2 {
		return none, nil
	}
	// Most populous first; ties keep first appearance.
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	c1, c2 := order[0], order[1]
	top := func(cid int) bool { return cid == c1 || cid == c2 }

	var edgeNodes []NodeDatum
	var weights []float64
	total := 0
	for _, n := range nodes {
		own := labels[n.Index]
		if !top(own) {
			continue
		}
		total++
		crosses := false
		for p, j := range g.Index[n.Index] {
			if j == n.Index {
				continue
			}
			other := labels[j]
			if !top(other) || other == own {
				continue
			}
			weights = append(weights, 1-g.Distance[n.Index][p])
			crosses = true
		}
		if crosses {
			edgeNodes = append(edgeNodes, n)
		}
	}
	in := signals.BridgeInputs{
		Openness:      float64(len(edgeNodes)) / float64(max(1, total)),
		MomentumLeft:  momentumOf(c1, momentum),
		MomentumRight: momentumOf(c2, momentum),
	}
	if len(weights) > 0 {
		var sum float64
		for _, w := range weights {
			sum += w
		}
		in.InterWeight = sum / float64(len(weights))
	}
	return in, edgeNodes
}

func momentumOf(cid int, momentum []float64) float64 {
	if cid >= 0 && cid < len(momentum) {
		return momentum[cid]
	}
	return 0
}

func focusNodes(latest []NodeDatum) []string {
	sorted := append([]NodeDatum(nil), latest...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Distance < sorted[b].Distance })
	return ids(head(sorted, maxSignalNodes))
}

func gapNodes(nodes []NodeDatum, c Cohort) []string {
	var picked []NodeDatum
	for _, n := range nodes {
		if n.Score >= c.HighScore && n.Proximity >= minGapProximity {
			picked = append(picked, n)
		}
	}
	if len(picked) == 0 {
		picked = append([]NodeDatum(nil), nodes...)
		sort.SliceStable(picked, func(a, b int) bool { return picked[a].Score > picked[b].Score })
		picked = head(picked, fallbackNodes)
	}
	return ids(head(picked, maxSignalNodes))
}

func crowdNodes(latest []NodeDatum, c Cohort) []string {
	var picked []NodeDatum
	for _, n := range latest {
		if n.Density >= c.HighDensity && n.Score <= c.LowScore {
			picked = append(picked, n)
		}
	}
	if len(picked) == 0 {
		picked = append([]NodeDatum(nil), latest...)
		sort.SliceStable(picked, func(a, b int) bool {
			if picked[a].Density != picked[b].Density {
				return picked[a].Density > picked[b].Density
			}
			return picked[a].Score < picked[b].Score
		})
		picked = head(picked, fallbackNodes)
	}
	return ids(head(picked, maxSignalNodes))
}

func head(nodes []NodeDatum, n int) []NodeDatum {
	if len(nodes) > n {
		return nodes[:n]
	}
	return nodes
}

func ids(nodes []NodeDatum) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.PubID)
	}
	return out
}
