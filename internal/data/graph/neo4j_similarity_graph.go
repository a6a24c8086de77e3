package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
	"github.com/yungbote/whitespace-backend/internal/platform/neo4jdb"
)

// SimilarityGraphRows turns persisted rows into Cypher parameters. Patent
// nodes carry the caller's latest score for the model; SIMILAR_TO edges are
// scoped by user.
func SimilarityGraphRows(userID, model string, edges []types.KnnEdge, scores []types.UserWhitespaceAnalysis, syncedAt string) (nodes, rels []map[string]any) {
	nodes = make([]map[string]any, 0, len(scores))
	for _, s := range scores {
		if strings.TrimSpace(s.PubID) == "" {
			continue
		}
		nodes = append(nodes, map[string]any{
			"pub_id":           s.PubID,
			"user_id":          userID,
			"model":            model,
			"cluster_id":       int64(s.ClusterID),
			"local_density":    s.LocalDensity,
			"whitespace_score": s.WhitespaceScore,
			"synced_at":        syncedAt,
		})
	}
	rels = make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.Src == "" || e.Dst == "" || e.Src == e.Dst {
			continue
		}
		rels = append(rels, map[string]any{
			"src":       e.Src,
			"dst":       e.Dst,
			"w":         e.W,
			"user_id":   userID,
			"synced_at": syncedAt,
		})
	}
	return nodes, rels
}

// UpsertUserSimilarityGraph mirrors one persisted analysis into Neo4j. A nil
// client is a no-op.
func UpsertUserSimilarityGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, userID, model string, edges []types.KnnEdge, scores []types.UserWhitespaceAnalysis) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("neo4j similarity graph sync: missing userID")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	nodes, rels := SimilarityGraphRows(userID, model, edges, scores, time.Now().UTC().Format(time.RFC3339Nano))

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT patent_pub_id_unique IF NOT EXISTS FOR (p:Patent) REQUIRE p.pub_id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (p:Patent {pub_id: n.pub_id})
MERGE (u:Analyst {id: n.user_id})
MERGE (u)-[s:SCORED {model: n.model}]->(p)
SET s.cluster_id = n.cluster_id,
    s.local_density = n.local_density,
    s.whitespace_score = n.whitespace_score,
    s.synced_at = n.synced_at
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (a:Patent {pub_id: r.src})
MERGE (b:Patent {pub_id: r.dst})
MERGE (a)-[e:SIMILAR_TO {user_id: r.user_id}]->(b)
SET e.w = r.w,
    e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j similarity graph sync: %w", err)
	}
	if log != nil {
		log.Debug("neo4j similarity graph synced", "user_id", userID, "nodes", len(nodes), "edges", len(rels))
	}
	return nil
}
