package whitespace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// ErrNoEmbeddings is returned by PickModel when the embeddings table is empty.
var ErrNoEmbeddings = errors.New("no embeddings available")

// LoadFilter selects the population for one analysis. Dates are YYYYMMDD;
// DateFrom is inclusive and DateTo exclusive.
type LoadFilter struct {
	Model         string
	DateFrom      *int
	DateTo        *int
	FocusKeywords []string
	FocusCPCLike  []string
	CanonicalIDs  []uuid.UUID
	Limit         int
}

// EmbeddingRow is one joined row, before the vector is decoded.
type EmbeddingRow struct {
	PubID        string         `gorm:"column:pub_id"`
	Embedding    datatypes.JSON `gorm:"column:embedding"`
	PubDate      *int           `gorm:"column:pub_date"`
	AssigneeName string         `gorm:"column:assignee_name"`
	Title        string         `gorm:"column:title"`
	Abstract     string         `gorm:"column:abstract"`
	IsFocus      bool           `gorm:"column:is_focus"`
}

type EmbeddingRepo interface {
	PickModel(ctx context.Context, tx *gorm.DB, preferred string) (string, error)
	Load(ctx context.Context, tx *gorm.DB, f LoadFilter) ([]EmbeddingRow, error)
}

type embeddingRepo struct {
	db     *gorm.DB
	log    *logger.Logger
	policy RetryPolicy
}

func NewEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{db: db, log: baseLog.With("repo", "EmbeddingRepo"), policy: DefaultRetryPolicy()}
}

// PickModel returns preferred when it has rows, else the most populous
// "<name>|ta" model, else the most populous model overall.
func (r *embeddingRepo) PickModel(ctx context.Context, tx *gorm.DB, preferred string) (string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	preferred = strings.TrimSpace(preferred)
	var picked string
	err := withRetry(ctx, r.log, r.policy, "pick_model", func() error {
		picked = ""
		if preferred != "" {
			var ids []string
			if err := t.WithContext(ctx).
				Model(&types.PatentEmbedding{}).
				Where("model = ?", preferred).
				Limit(1).
				Pluck("pub_id", &ids).Error; err != nil {
				return err
			}
			if len(ids) > 0 {
				picked = preferred
				return nil
			}
		}
		for _, like := range []string{"%|ta", "%"} {
			var rows []struct {
				Model string
				N     int64
			}
			if err := t.WithContext(ctx).
				Model(&types.PatentEmbedding{}).
				Select("model, COUNT(*) AS n").
				Where("model LIKE ?", like).
				Group("model").
				Order("n DESC, model").
				Limit(1).
				Scan(&rows).Error; err != nil {
				return err
			}
			if len(rows) > 0 && rows[0].Model != "" {
				picked = rows[0].Model
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("pick model: %w", err)
	}
	if picked == "" {
		return "", ErrNoEmbeddings
	}
	return picked, nil
}

// Load returns rows ordered focus first, newest first (undated last), then
// by id, capped at f.Limit.
func (r *embeddingRepo) Load(ctx context.Context, tx *gorm.DB, f LoadFilter) ([]EmbeddingRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	focusExpr, focusArgs := focusExpression(f.FocusKeywords, f.FocusCPCLike)

	var out []EmbeddingRow
	err := withRetry(ctx, r.log, r.policy, "load_embeddings", func() error {
		out = nil
		q := t.WithContext(ctx).
			Table("patent_embeddings AS e").
			Select(`e.pub_id, e.embedding, p.pub_date,
				COALESCE(can.canonical_assignee_name, p.assignee_name) AS assignee_name,
				p.title, p.abstract, (`+focusExpr+`) AS is_focus`, focusArgs...).
			Joins("JOIN patent p ON p.pub_id = e.pub_id").
			Joins("LEFT JOIN canonical_assignee_name can ON can.id = p.canonical_assignee_name_id").
			Where("e.model = ?", f.Model)
		if f.DateFrom != nil {
			q = q.Where("p.pub_date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			q = q.Where("p.pub_date < ?", *f.DateTo)
		}
		if len(f.CanonicalIDs) > 0 {
			q = q.Where(`(p.canonical_assignee_name_id IN ? OR p.assignee_name IN
				(SELECT a.assignee_name_alias FROM assignee_alias a WHERE a.canonical_id IN ?))`,
				f.CanonicalIDs, f.CanonicalIDs)
		}
		q = q.Order("is_focus DESC").
			Order("CASE WHEN p.pub_date IS NULL THEN 1 ELSE 0 END").
			Order("p.pub_date DESC").
			Order("e.pub_id")
		if f.Limit > 0 {
			q = q.Limit(f.Limit)
		}
		return q.Scan(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	return out, nil
}

// focusExpression builds the is_focus predicate: any keyword in title or
// abstract AND any CPC pattern, over whichever families were supplied.
func focusExpression(keywords, cpcLike []string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	var kw []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		kw = append(kw, "LOWER(COALESCE(p.title, '') || ' ' || COALESCE(p.abstract, '')) LIKE ?")
		args = append(args, "%"+escapeLike(k)+"%")
	}
	if len(kw) > 0 {
		conds = append(conds, "("+strings.Join(kw, " OR ")+")")
	}
	var cpc []string
	var cpcArgs []any
	for _, pattern := range cpcLike {
		pattern = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(pattern), " ", ""))
		if pattern == "" {
			continue
		}
		cpc = append(cpc, "c.code LIKE ?")
		cpcArgs = append(cpcArgs, pattern)
	}
	if len(cpc) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM patent_cpc c WHERE c.pub_id = p.pub_id AND ("+strings.Join(cpc, " OR ")+"))")
		args = append(args, cpcArgs...)
	}
	if len(conds) == 0 {
		return "1 = 0", nil
	}
	return strings.Join(conds, " AND "), args
}

// escapeLike drops the multi-character wildcard from free-text keywords. CPC
// patterns are LIKE patterns by contract and are left alone.
func escapeLike(s string) string {
	return strings.ReplaceAll(s, "%", "")
}
