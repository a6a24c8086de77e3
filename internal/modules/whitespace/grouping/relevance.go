package grouping

import (
	"sort"

	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/signals"
)

const (
	DefaultRelevance = 0.15
	minRelevance     = 0.05
	maxRelevance     = 1.0
)

// Highlight is what the graph view shows for one node.
type Highlight struct {
	Kinds     []signals.Kind
	Relevance float64
	Tooltip   string
}

// Highlights folds finished group results into a per-node view. Every signal
// that lists a node tags it, fired or not; a node keeps the strongest
// confidence that pointed at it and that signal's tooltip, with later signals
// winning ties. A node only referenced by silent signals gets the default
// relevance.
func Highlights(results []GroupResult) map[string]Highlight {
	kinds := map[string]map[signals.Kind]struct{}{}
	best := map[string]float64{}
	tips := map[string]string{}
	for _, r := range results {
		for _, s := range r.Signals {
			tip := s.Kind.Label() + ": " + s.Message
			for _, id := range s.NodeIDs {
				if kinds[id] == nil {
					kinds[id] = map[signals.Kind]struct{}{}
				}
				kinds[id][s.Kind] = struct{}{}
				if s.Confidence >= best[id] {
					best[id] = s.Confidence
					tips[id] = tip
				}
			}
		}
	}
	out := make(map[string]Highlight, len(kinds))
	for id, set := range kinds {
		h := Highlight{Relevance: clampRelevance(best[id]), Tooltip: tips[id]}
		for k := range set {
			h.Kinds = append(h.Kinds, k)
		}
		sort.Slice(h.Kinds, func(a, b int) bool { return h.Kinds[a] < h.Kinds[b] })
		out[id] = h
	}
	return out
}

// For returns the highlight for id, falling back to the default relevance
// for nodes no signal referenced.
func For(hs map[string]Highlight, id string) Highlight {
	if h, ok := hs[id]; ok {
		return h
	}
	return Highlight{Kinds: []signals.Kind{}, Relevance: DefaultRelevance}
}

func clampRelevance(v float64) float64 {
	if v <= 0 {
		v = DefaultRelevance
	}
	if v < minRelevance {
		return minRelevance
	}
	if v > maxRelevance {
		return maxRelevance
	}
	return v
}
