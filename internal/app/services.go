package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/whitespace-backend/internal/config"
	"github.com/yungbote/whitespace-backend/internal/data/graph"
	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	whitespacemod "github.com/yungbote/whitespace-backend/internal/modules/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/canonical"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/persist"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
	"github.com/yungbote/whitespace-backend/internal/platform/neo4jdb"
)

type Services struct {
	Whitespace *whitespacemod.Usecases
	Resolver   *canonical.Resolver
	Persister  *persist.Persister
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, r Repos, rdb *goredis.Client, gc *neo4jdb.Client) (Services, error) {
	log.Info("Wiring services...")
	ws := cfg.Whitespace

	caps, err := engine.NewCapabilities(log, ws.Clustering, ws.Layout, ws.Seed)
	if err != nil {
		return Services{}, fmt.Errorf("whitespace capabilities: %w", err)
	}

	cache, err := canonical.NewTieredCache(log, ws.AssigneeCache, rdb, cfg.Redis.TTL)
	if err != nil {
		return Services{}, fmt.Errorf("assignee cache: %w", err)
	}
	resolver := canonical.NewResolver(log, r.Assignees, canonical.WithCache(cache))

	var mirror persist.Mirror
	if gc != nil {
		mirror = func(ctx context.Context, userID, model string, edges []types.KnnEdge, scores []types.UserWhitespaceAnalysis) error {
			return graph.UpsertUserSimilarityGraph(ctx, gc, log, userID, model, edges, scores)
		}
	}
	persister := persist.New(persist.PersisterDeps{
		DB:      db,
		Repo:    r.Analysis,
		Mirror:  mirror,
		Log:     log,
		Timeout: ws.PersistTimeout,
	})

	uc, err := whitespacemod.New(whitespacemod.UsecasesDeps{
		Log:            log,
		Embeddings:     r.Embeddings,
		Resolver:       resolver,
		Caps:           caps,
		Persister:      persister,
		EmbeddingModel: ws.EmbeddingModel,
		MaxGroups:      ws.MaxGroups,
	})
	if err != nil {
		return Services{}, err
	}
	return Services{Whitespace: uc, Resolver: resolver, Persister: persister}, nil
}
