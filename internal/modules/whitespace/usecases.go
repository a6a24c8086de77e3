package whitespace

import (
	"context"
	"errors"
	"strings"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/canonical"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/grouping"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/persist"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// Submitter takes finished analyses for background storage.
type Submitter interface {
	Submit(s persist.Snapshot) error
}

type UsecasesDeps struct {
	Log *logger.Logger

	Embeddings repos.EmbeddingRepo
	Resolver   *canonical.Resolver
	Caps       *engine.Capabilities
	Persister  Submitter

	EmbeddingModel string
	MaxGroups      int
}

type Usecases struct {
	deps   UsecasesDeps
	log    *logger.Logger
	loader *Loader
}

func New(deps UsecasesDeps) (*Usecases, error) {
	if deps.Embeddings == nil {
		return nil, errors.New("whitespace usecases: missing embedding repo")
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Caps == nil {
		caps, err := engine.NewCapabilities(deps.Log, "", "", 0)
		if err != nil {
			return nil, err
		}
		deps.Caps = caps
	}
	if deps.MaxGroups <= 0 {
		deps.MaxGroups = grouping.DefaultMaxGroups
	}
	return &Usecases{
		deps:   deps,
		log:    deps.Log.With("component", "WhitespaceUsecases"),
		loader: NewLoader(deps.Log, deps.Embeddings, deps.EmbeddingModel),
	}, nil
}

// SearchAssignees returns canonical assignees ranked by similarity to query.
// An unmatched query yields an empty list.
func (u *Usecases) SearchAssignees(ctx context.Context, query string) ([]canonical.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Violations: []string{"q is required"}}
	}
	if u.deps.Resolver == nil {
		return nil, errors.New("assignee search is not configured")
	}
	out, err := u.deps.Resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []canonical.Candidate{}
	}
	return out, nil
}
