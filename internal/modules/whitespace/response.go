package whitespace

import (
	"time"

	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/grouping"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/signals"
)

// maxEdgesPerNode bounds the edges returned per source node.
const maxEdgesPerNode = 10

type Response struct {
	ScopeLabel string         `json:"scope_label"`
	Groups     []GroupPayload `json:"groups"`
	Graph      *Graph         `json:"graph,omitempty"`
	Debug      *Debug         `json:"debug,omitempty"`
}

type SignalPayload struct {
	Type       signals.Kind       `json:"type"`
	Status     signals.Status     `json:"status"`
	Confidence float64            `json:"confidence"`
	Why        string             `json:"why"`
	NodeIDs    []string           `json:"node_ids"`
	Debug      map[string]float64 `json:"debug,omitempty"`
}

type GroupPayload struct {
	Label   string          `json:"label"`
	Scope   string          `json:"scope"`
	Signals []SignalPayload `json:"signals"`
	Debug   *GroupDebug     `json:"debug,omitempty"`
}

type GroupDebug struct {
	WindowStart      string      `json:"window_start,omitempty"`
	WindowEnd        string      `json:"window_end,omitempty"`
	Insufficient     bool        `json:"insufficient"`
	DistSeries       []float64   `json:"dist_series"`
	ShareSeries      []float64   `json:"share_series"`
	WhitespaceSeries []float64   `json:"whitespace_series"`
	DensitySeries    []float64   `json:"density_series"`
	MomentumSeries   []float64   `json:"momentum_series"`
	NeighborMomentum float64     `json:"neighbor_momentum"`
	HighWSThreshold  float64     `json:"high_ws_threshold"`
	LowWSThreshold   float64     `json:"low_ws_threshold"`
	HighDensity      float64     `json:"high_density_threshold"`
	BridgeInputs     BridgeDebug `json:"bridge_inputs"`
}

type BridgeDebug struct {
	Openness      float64 `json:"openness"`
	InterWeight   float64 `json:"inter_weight"`
	MomentumLeft  float64 `json:"momentum_left"`
	MomentumRight float64 `json:"momentum_right"`
}

type GraphNode struct {
	ID              string         `json:"id"`
	ClusterID       int            `json:"cluster_id"`
	Assignee        string         `json:"assignee"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Signals         []signals.Kind `json:"signals"`
	Relevance       float64        `json:"relevance"`
	Title           string         `json:"title,omitempty"`
	Tooltip         string         `json:"tooltip,omitempty"`
	PubDate         string         `json:"pub_date,omitempty"`
	WhitespaceScore float64        `json:"whitespace_score"`
	LocalDensity    float64        `json:"local_density"`
	Abstract        string         `json:"abstract,omitempty"`
}

type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type Debug struct {
	Model           string  `json:"model"`
	FocusCount      int     `json:"focus_mask_count"`
	TotalNodes      int     `json:"total_nodes"`
	Clusters        int     `json:"clusters"`
	Alpha           float64 `json:"alpha"`
	EffectiveAlpha  float64 `json:"effective_alpha"`
	Beta            float64 `json:"beta"`
	FocusVectorNorm float64 `json:"focus_vector_norm"`
	Clustering      string  `json:"clustering"`
	Layout          string  `json:"layout"`
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func signalPayload(o grouping.SignalOutcome, debug bool) SignalPayload {
	p := SignalPayload{
		Type:       o.Kind,
		Status:     o.Status(),
		Confidence: o.Confidence,
		Why:        o.Message,
		NodeIDs:    o.NodeIDs,
	}
	if p.NodeIDs == nil {
		p.NodeIDs = []string{}
	}
	if debug {
		p.Debug = o.Debug
	}
	return p
}

func groupPayload(r grouping.GroupResult, scope string, cohort grouping.Cohort, debug bool) GroupPayload {
	g := GroupPayload{Label: r.Label, Scope: scope}
	for _, s := range r.Signals {
		g.Signals = append(g.Signals, signalPayload(s, debug))
	}
	if !debug {
		return g
	}
	d := &GroupDebug{
		Insufficient:     r.Insufficient,
		DistSeries:       nonNil(r.Series.Distance),
		ShareSeries:      nonNil(r.Series.Share),
		WhitespaceSeries: nonNil(r.Series.Score),
		DensitySeries:    nonNil(r.Series.Density),
		MomentumSeries:   nonNil(r.Series.Momentum),
		NeighborMomentum: r.Series.NeighborMomentum(),
		HighWSThreshold:  cohort.HighScore,
		LowWSThreshold:   cohort.LowScore,
		HighDensity:      cohort.HighDensity,
		BridgeInputs: BridgeDebug{
			Openness:      r.Bridge.Openness,
			InterWeight:   r.Bridge.InterWeight,
			MomentumLeft:  r.Bridge.MomentumLeft,
			MomentumRight: r.Bridge.MomentumRight,
		},
	}
	if !r.Insufficient {
		d.WindowStart = formatDate(r.Window.Start)
		d.WindowEnd = formatDate(r.Window.End)
	}
	g.Debug = d
	return g
}

// emptyScope is the single placeholder group returned when no group could be
// evaluated.
func emptyScope(label, scope string) GroupPayload {
	g := GroupPayload{Label: label, Scope: scope}
	for _, kind := range signals.Order {
		g.Signals = append(g.Signals, signalPayload(grouping.SignalOutcome{Result: signals.NoSignal(kind)}, false))
	}
	return g
}

func graphNodes(nodes []grouping.NodeDatum, abstracts []string, points []engine.Point, hs map[string]grouping.Highlight) []GraphNode {
	out := make([]GraphNode, len(nodes))
	for i, n := range nodes {
		h := grouping.For(hs, n.PubID)
		gn := GraphNode{
			ID:              n.PubID,
			ClusterID:       n.ClusterID,
			Assignee:        n.Assignee,
			Signals:         h.Kinds,
			Relevance:       h.Relevance,
			Title:           n.Title,
			Tooltip:         h.Tooltip,
			WhitespaceScore: n.Score,
			LocalDensity:    n.Density,
			Abstract:        abstracts[i],
		}
		if i < len(points) {
			gn.X, gn.Y = points[i].X, points[i].Y
		}
		if n.PubDate != nil {
			gn.PubDate = formatDate(*n.PubDate)
		}
		out[i] = gn
	}
	return out
}

// graphEdges emits up to maxEdgesPerNode nearest neighbours per node, self
// excluded, weighted by similarity.
func graphEdges(ids []string, g *engine.NeighborGraph) []GraphEdge {
	out := make([]GraphEdge, 0, len(ids)*min(g.K(), maxEdgesPerNode))
	for i, row := range g.Index {
		emitted := 0
		for p, j := range row {
			if j == i {
				continue
			}
			if emitted == maxEdgesPerNode {
				break
			}
			out = append(out, GraphEdge{Source: ids[i], Target: ids[j], Weight: 1 - g.Distance[i][p]})
			emitted++
		}
	}
	return out
}

func nonNil(xs []float64) []float64 {
	if xs == nil {
		return []float64{}
	}
	return xs
}
