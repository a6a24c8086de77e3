package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

const DefaultTimeout = 2 * time.Minute

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("persister closed")

// Snapshot is everything needed to store one analysis for one caller.
type Snapshot struct {
	UserID  string
	Model   string
	IDs     []string
	Graph   *engine.NeighborGraph
	Labels  []int
	Density []float64
	Scores  []float64
}

// Mirror receives a copy of the stored rows, e.g. a graph database.
type Mirror func(ctx context.Context, userID, model string, edges []types.KnnEdge, scores []types.UserWhitespaceAnalysis) error

// Persister stores analysis results off the request path. Writes are
// best-effort: failures are logged and counted, never returned to callers.
type Persister struct {
	db      *gorm.DB
	repo    repos.AnalysisRepo
	mirror  Mirror
	log     *logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type PersisterDeps struct {
	DB      *gorm.DB
	Repo    repos.AnalysisRepo
	Mirror  Mirror
	Log     *logger.Logger
	Timeout time.Duration
}

func New(deps PersisterDeps) *Persister {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Persister{
		db:      deps.DB,
		repo:    deps.Repo,
		mirror:  deps.Mirror,
		log:     log.With("component", "ResultPersister"),
		timeout: timeout,
	}
}

// Submit schedules s for storage and returns immediately. The write runs on
// its own context with the persister timeout, so it outlives the request.
func (p *Persister) Submit(s Snapshot) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("persist panicked", "user_id", s.UserID, "panic", fmt.Sprint(r))
				observability.Current().IncPersist("panic")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Persist(ctx, s); err != nil {
			p.log.Error("persist whitespace analysis failed", "user_id", s.UserID, "model", s.Model, "error", err)
		}
	}()
	return nil
}

// Persist writes edges and scores in one transaction, then mirrors them.
// Mirror failures are logged only.
func (p *Persister) Persist(ctx context.Context, s Snapshot) error {
	if s.UserID == "" {
		observability.Current().IncPersist("skipped")
		return nil
	}
	edges, scores := Rows(s)
	start := time.Now()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.repo.UpsertEdges(ctx, tx, edges); err != nil {
			return err
		}
		return p.repo.UpsertScores(ctx, tx, scores)
	})
	if err != nil {
		observability.Current().IncPersist("error")
		return err
	}
	observability.Current().IncPersist("ok")
	p.log.Info("whitespace analysis persisted",
		"user_id", s.UserID,
		"edges", len(edges),
		"nodes", len(scores),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if p.mirror != nil {
		if err := p.mirror(ctx, s.UserID, s.Model, edges, scores); err != nil {
			p.log.Warn("graph mirror failed", "user_id", s.UserID, "error", err)
		}
	}
	return nil
}

// Rows flattens a snapshot: every non-self KNN pair as a directed edge with
// weight 1 - distance, and one score row per node.
func Rows(s Snapshot) ([]types.KnnEdge, []types.UserWhitespaceAnalysis) {
	var edges []types.KnnEdge
	if s.Graph != nil {
		for i, row := range s.Graph.Index {
			for p, j := range row {
				if j == i {
					continue
				}
				edges = append(edges, types.KnnEdge{
					UserID: s.UserID,
					Src:    s.IDs[i],
					Dst:    s.IDs[j],
					W:      1 - s.Graph.Distance[i][p],
				})
			}
		}
	}
	scores := make([]types.UserWhitespaceAnalysis, len(s.IDs))
	for i, id := range s.IDs {
		scores[i] = types.UserWhitespaceAnalysis{
			UserID:          s.UserID,
			PubID:           id,
			Model:           s.Model,
			ClusterID:       s.Labels[i],
			LocalDensity:    s.Density[i],
			WhitespaceScore: s.Scores[i],
		}
	}
	return edges, scores
}

// Close stops accepting work and waits for in-flight writes or ctx.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
