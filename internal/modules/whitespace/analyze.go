package whitespace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/canonical"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/grouping"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/persist"
	"github.com/yungbote/whitespace-backend/internal/observability"
)

// Analyze runs the full pipeline for one caller: load, KNN graph, clusters,
// momentum, scores, layout and per-group signals. Results for a non-empty
// userID are handed to the persister after the response is assembled.
func (u *Usecases) Analyze(ctx context.Context, userID string, req Request) (resp *Response, err error) {
	start := time.Now()
	mode := req.mode()
	defer func() {
		observability.Current().IncAnalysis(mode, outcome(err))
	}()

	dates, err := req.validate()
	if err != nil {
		return nil, err
	}

	filter := repos.LoadFilter{
		FocusKeywords: req.FocusKeywords,
		FocusCPCLike:  req.FocusCPCLike,
		Limit:         req.Limit,
	}
	if dates.From != nil {
		v := types.DateToInt(*dates.From)
		filter.DateFrom = &v
	}
	if dates.To != nil {
		v := types.DateToInt(*dates.To)
		filter.DateTo = &v
	}
	groupMode := grouping.ByAssignee
	if mode == SearchAssignee {
		if u.deps.Resolver == nil {
			return nil, errors.New("assignee search is not configured")
		}
		candidates, rerr := u.deps.Resolver.Resolve(ctx, req.AssigneeQuery)
		if rerr != nil {
			return nil, fmt.Errorf("resolve assignee: %w", rerr)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoAssigneeMatch, req.AssigneeQuery)
		}
		filter.CanonicalIDs = canonical.IDs(candidates)
		groupMode = grouping.ByCluster
	}

	stageCtx, end := observability.StartStage(ctx, "load", attribute.String("mode", mode))
	pop, err := u.loader.Load(stageCtx, filter)
	end(err)
	if err != nil {
		if errors.Is(err, repos.ErrNoEmbeddings) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
		}
		return nil, err
	}
	n := len(pop.Records)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 embeddings, got %d", ErrInsufficientData, n)
	}
	var violations []string
	if req.Neighbors >= n {
		violations = append(violations, fmt.Sprintf("neighbors must be less than the number of embeddings (%d)", n))
	}
	if req.LayoutNeighbors >= n {
		violations = append(violations, fmt.Sprintf("layout_neighbors must be less than the number of embeddings (%d)", n))
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	_, end = observability.StartStage(ctx, "knn", attribute.Int("nodes", n), attribute.Int("neighbors", req.Neighbors))
	graph, err := engine.BuildKNN(pop.X, req.Neighbors)
	end(err)
	if err != nil {
		return nil, err
	}
	density := engine.Density(graph)

	caps := u.deps.Caps
	_, end = observability.StartStage(ctx, "cluster", attribute.String("strategy", caps.Clusterer.Name()))
	labels := caps.Clusterer.Cluster(graph, req.Resolution)
	end(nil)

	_, end = observability.StartStage(ctx, "momentum")
	dated := make([]*time.Time, n)
	focus := make([]bool, n)
	ids := make([]string, n)
	abstracts := make([]string, n)
	for i, r := range pop.Records {
		dated[i], focus[i], ids[i], abstracts[i] = r.PubDate, r.IsFocus, r.ID, r.Abstract
	}
	momentum := engine.Momentum(labels, dated)
	end(nil)

	_, end = observability.StartStage(ctx, "score")
	scores := engine.Score(pop.X, focus, density, labels, momentum, engine.ScoreParams{Alpha: req.Alpha, Beta: req.Beta})
	end(nil)

	projector := caps.ProjectorFor(req.Layout)
	_, end = observability.StartStage(ctx, "layout", attribute.String("strategy", projector.Name()))
	points, err := projector.Project(pop.X, engine.LayoutParams{Neighbors: req.LayoutNeighbors, MinDist: req.LayoutMinDist})
	end(err)
	if err != nil {
		u.log.Warn("layout failed; using linear projection", "strategy", projector.Name(), "error", err)
		projector = caps.Linear
		if points, err = projector.Project(pop.X, engine.LayoutParams{}); err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
	}

	_, end = observability.StartStage(ctx, "signals", attribute.String("grouping", string(groupMode)))
	nodes := grouping.BuildNodes(pop.Records, labels, density, scores, momentum)
	cohort := grouping.NewCohort(nodes)
	results := grouping.Evaluate(grouping.Partition(nodes, groupMode, u.deps.MaxGroups), grouping.Context{
		Graph:    graph,
		Labels:   labels,
		Momentum: momentum,
		Cohort:   cohort,
		DateFrom: dates.From,
		DateTo:   dates.To,
		Mode:     groupMode,
	})
	highlights := grouping.Highlights(results)
	end(nil)

	scope := req.scopeText()
	resp = &Response{ScopeLabel: scope, Groups: make([]GroupPayload, 0, len(results))}
	for _, r := range results {
		resp.Groups = append(resp.Groups, groupPayload(r, scope, cohort, req.Debug))
	}
	if len(resp.Groups) == 0 {
		resp.Groups = append(resp.Groups, emptyScope(nodes[0].Assignee, scope))
	}
	for _, g := range resp.Groups {
		for _, s := range g.Signals {
			observability.Current().IncSignal(string(s.Type), string(s.Status))
		}
	}
	resp.Graph = &Graph{
		Nodes: graphNodes(nodes, abstracts, points, highlights),
		Edges: graphEdges(ids, graph),
	}
	if req.Debug {
		resp.Debug = &Debug{
			Model:           pop.Model,
			FocusCount:      scores.FocusCount,
			TotalNodes:      n,
			Clusters:        engine.ClusterCount(labels),
			Alpha:           req.Alpha,
			EffectiveAlpha:  scores.Alpha,
			Beta:            req.Beta,
			FocusVectorNorm: floats.Norm(scores.Focus, 2),
			Clustering:      caps.Clusterer.Name(),
			Layout:          projector.Name(),
		}
	}

	if userID != "" && u.deps.Persister != nil {
		snap := persist.Snapshot{
			UserID:  userID,
			Model:   pop.Model,
			IDs:     ids,
			Graph:   graph,
			Labels:  labels,
			Density: density,
			Scores:  scores.Score,
		}
		if perr := u.deps.Persister.Submit(snap); perr != nil {
			u.log.Warn("analysis not persisted", "user_id", userID, "error", perr)
		}
	}

	u.log.Info("whitespace analysis complete",
		"user_id", userID,
		"mode", mode,
		"model", pop.Model,
		"nodes", n,
		"clusters", engine.ClusterCount(labels),
		"groups", len(resp.Groups),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient"
	case errors.Is(err, ErrNoAssigneeMatch):
		return "no_match"
	default:
		return "error"
	}
}
