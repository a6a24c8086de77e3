package whitespace

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

const upsertBatchSize = 500

type AnalysisRepo interface {
	UpsertEdges(ctx context.Context, tx *gorm.DB, rows []types.KnnEdge) error
	UpsertScores(ctx context.Context, tx *gorm.DB, rows []types.UserWhitespaceAnalysis) error

	ListEdges(ctx context.Context, tx *gorm.DB, userID string) ([]types.KnnEdge, error)
	ListScores(ctx context.Context, tx *gorm.DB, userID, model string) ([]types.UserWhitespaceAnalysis, error)
}

type analysisRepo struct {
	db     *gorm.DB
	log    *logger.Logger
	policy RetryPolicy
}

func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	return &analysisRepo{db: db, log: baseLog.With("repo", "AnalysisRepo"), policy: DefaultRetryPolicy()}
}

// UpsertEdges writes per-user edges; an existing (user_id, src, dst) keeps the
// latest weight.
func (r *analysisRepo) UpsertEdges(ctx context.Context, tx *gorm.DB, rows []types.KnnEdge) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		rows[i].UpdatedAt = now
	}
	err := withRetry(ctx, r.log, r.policy, "upsert_edges", func() error {
		return t.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "src"}, {Name: "dst"}},
				DoUpdates: clause.AssignmentColumns([]string{"w", "updated_at"}),
			}).
			CreateInBatches(&rows, upsertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert edges: %w", err)
	}
	return nil
}

// UpsertScores writes per-user node scores keyed by (user_id, pub_id, model).
func (r *analysisRepo) UpsertScores(ctx context.Context, tx *gorm.DB, rows []types.UserWhitespaceAnalysis) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		rows[i].UpdatedAt = now
	}
	err := withRetry(ctx, r.log, r.policy, "upsert_scores", func() error {
		return t.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "pub_id"}, {Name: "model"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"cluster_id",
					"local_density",
					"whitespace_score",
					"updated_at",
				}),
			}).
			CreateInBatches(&rows, upsertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert scores: %w", err)
	}
	return nil
}

func (r *analysisRepo) ListEdges(ctx context.Context, tx *gorm.DB, userID string) ([]types.KnnEdge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []types.KnnEdge
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("src, dst").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analysisRepo) ListScores(ctx context.Context, tx *gorm.DB, userID, model string) ([]types.UserWhitespaceAnalysis, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []types.UserWhitespaceAnalysis
	if err := t.WithContext(ctx).
		Where("user_id = ? AND model = ?", userID, model).
		Order("pub_id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
