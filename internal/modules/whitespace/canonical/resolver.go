package canonical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

const (
	DefaultThreshold     = 0.80
	DefaultMaxCandidates = 12
	searchLimit          = 500
)

// Candidate is one canonical assignee ranked against a query.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Score float64   `json:"score"`
}

// Resolver maps a free-text assignee query to ranked canonical names.
type Resolver struct {
	repo      repos.AssigneeRepo
	cache     Cache
	log       *logger.Logger
	threshold float64
	max       int
	flight    singleflight.Group
}

type ResolverOption func(*Resolver)

func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

func WithThreshold(t float64) ResolverOption {
	return func(r *Resolver) {
		if t > 0 && t <= 1 {
			r.threshold = t
		}
	}
}

func WithMaxCandidates(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.max = n
		}
	}
}

func NewResolver(log *logger.Logger, repo repos.AssigneeRepo, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Resolver{
		repo:      repo,
		log:       log.With("component", "AssigneeResolver"),
		threshold: DefaultThreshold,
		max:       DefaultMaxCandidates,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns candidates scoring at or above the threshold, best first.
// An empty result means no match; only storage failures are errors.
// Concurrent calls for the same normalized query share one search.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]Candidate, error) {
	key := Normalize(query)
	if key == "" {
		return []Candidate{}, nil
	}
	if r.cache != nil {
		if hit, ok := r.cache.Get(ctx, key); ok {
			observability.Current().IncAssigneeCache(true)
			return hit, nil
		}
		observability.Current().IncAssigneeCache(false)
	}

	v, err, _ := r.flight.Do(key, func() (interface{}, error) {
		out, err := r.search(ctx, query, key)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Set(ctx, key, out)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Candidate), nil
}

func (r *Resolver) search(ctx context.Context, query, key string) ([]Candidate, error) {
	matches, err := r.repo.SearchByPatterns(ctx, nil, Patterns(query), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("resolve assignee: %w", err)
	}

	best := map[uuid.UUID]Candidate{}
	for _, m := range matches {
		score := max(Similarity(key, Normalize(m.Text)), Similarity(key, Normalize(m.CanonicalName)))
		if score < r.threshold {
			continue
		}
		if cur, ok := best[m.CanonicalID]; !ok || score > cur.Score {
			best[m.CanonicalID] = Candidate{ID: m.CanonicalID, Name: m.CanonicalName, Score: score}
		}
	}
	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if len(out[a].Name) != len(out[b].Name) {
			return len(out[a].Name) < len(out[b].Name)
		}
		return strings.Compare(out[a].Name, out[b].Name) < 0
	})
	if len(out) > r.max {
		out = out[:r.max]
	}
	r.log.Debug("assignee resolved", "query_tokens", len(strings.Fields(key)), "matches", len(matches), "candidates", len(out))
	return out, nil
}

// IDs lists candidate ids in rank order.
func IDs(cs []Candidate) []uuid.UUID {
	out := make([]uuid.UUID, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
