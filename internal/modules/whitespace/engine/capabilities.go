package engine

import (
	"fmt"
	"strings"

	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// Capabilities is the clustering and layout strategy pair chosen once at
// construction. Analyses never check for algorithms at request time.
type Capabilities struct {
	Clusterer Clusterer
	Projector Projector
	// Linear is used when a request turns the neighbor layout off.
	Linear Projector
}

// NewCapabilities resolves strategy names from configuration. Empty names
// select the primary algorithms. Fallback modes are logged once.
func NewCapabilities(log *logger.Logger, clustering, layout string, seed uint64) (*Capabilities, error) {
	caps := &Capabilities{Linear: LinearProjector{}}
	switch strings.ToLower(strings.TrimSpace(clustering)) {
	case "", ClusteringModularity:
		caps.Clusterer = ModularityClusterer{Seed: seed}
	case ClusteringThreshold:
		caps.Clusterer = ThresholdClusterer{Threshold: DefaultSimilarityThreshold}
	default:
		return nil, fmt.Errorf("unknown clustering strategy %q", clustering)
	}
	switch strings.ToLower(strings.TrimSpace(layout)) {
	case "", LayoutNeighbor:
		caps.Projector = NeighborEmbedding{Seed: seed}
	case LayoutLinear:
		caps.Projector = LinearProjector{}
	default:
		return nil, fmt.Errorf("unknown layout strategy %q", layout)
	}

	if log != nil {
		if caps.Clusterer.Degraded() {
			log.Warn("clustering running in degraded mode; partitions are coarser connected components",
				"strategy", caps.Clusterer.Name(),
				"similarity_threshold", DefaultSimilarityThreshold,
			)
		}
		if caps.Projector.Degraded() {
			log.Warn("layout running in degraded mode; coordinates are a linear projection",
				"strategy", caps.Projector.Name(),
			)
		}
	}
	return caps, nil
}

// ProjectorFor returns the configured projector, or the linear one when the
// caller disabled the neighbor layout.
func (c *Capabilities) ProjectorFor(useLayout bool) Projector {
	if !useLayout || c.Projector == nil {
		return c.Linear
	}
	return c.Projector
}
