package grouping

import (
	"strings"
	"time"

	domain "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
)

const UnknownAssignee = "Unknown assignee"

// NodeDatum joins a loaded record with everything the engine derived for it.
type NodeDatum struct {
	Index     int
	PubID     string
	Assignee  string
	PubDate   *time.Time
	ClusterID int
	Score     float64
	Density   float64
	Proximity float64
	Distance  float64
	Momentum  float64
	IsFocus   bool
	Title     string
}

// NormalizeAssignee trims a raw assignee label; blank labels become
// UnknownAssignee.
func NormalizeAssignee(name string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return UnknownAssignee
}

// BuildNodes assembles per-node data in load order.
func BuildNodes(records []domain.EmbeddingRecord, labels []int, density []float64, scores *engine.NodeScores, momentum []float64) []NodeDatum {
	out := make([]NodeDatum, len(records))
	for i, r := range records {
		cid := labels[i]
		var mom float64
		if cid >= 0 && cid < len(momentum) {
			mom = momentum[cid]
		}
		out[i] = NodeDatum{
			Index:     i,
			PubID:     r.ID,
			Assignee:  NormalizeAssignee(r.Assignee),
			PubDate:   r.PubDate,
			ClusterID: cid,
			Score:     scores.Score[i],
			Density:   density[i],
			Proximity: scores.Proximity[i],
			Distance:  scores.Distance[i],
			Momentum:  mom,
			IsFocus:   r.IsFocus,
			Title:     r.Title,
		}
	}
	return out
}
