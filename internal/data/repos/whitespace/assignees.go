package whitespace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// AssigneeMatch is one canonical name reached by a pattern search, either
// directly or through one of its aliases. Text is the string that matched.
type AssigneeMatch struct {
	CanonicalID   uuid.UUID `gorm:"column:canonical_id"`
	CanonicalName string    `gorm:"column:canonical_name"`
	Text          string    `gorm:"column:text"`
}

type AssigneeRepo interface {
	SearchByPatterns(ctx context.Context, tx *gorm.DB, patterns []string, limit int) ([]AssigneeMatch, error)

	EnsureCanonical(ctx context.Context, tx *gorm.DB, name string) (uuid.UUID, error)
	EnsureAlias(ctx context.Context, tx *gorm.DB, canonicalID uuid.UUID, alias string) (uuid.UUID, error)
	LinkPatents(ctx context.Context, tx *gorm.DB, alias string, aliasID, canonicalID uuid.UUID) (int64, error)
	ListDistinctAssigneeNames(ctx context.Context, tx *gorm.DB, after string, limit int) ([]string, error)
}

type assigneeRepo struct {
	db     *gorm.DB
	log    *logger.Logger
	policy RetryPolicy
}

func NewAssigneeRepo(db *gorm.DB, baseLog *logger.Logger) AssigneeRepo {
	return &assigneeRepo{db: db, log: baseLog.With("repo", "AssigneeRepo"), policy: DefaultRetryPolicy()}
}

// SearchByPatterns matches case-insensitive LIKE patterns against canonical
// names and aliases. Duplicate (canonical, text) pairs are collapsed.
func (r *assigneeRepo) SearchByPatterns(ctx context.Context, tx *gorm.DB, patterns []string, limit int) ([]AssigneeMatch, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var clean []string
	for _, p := range patterns {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return []AssigneeMatch{}, nil
	}
	if limit <= 0 {
		limit = 500
	}

	canonConds, canonArgs := likeAny("UPPER(c.canonical_assignee_name)", clean)
	aliasConds, aliasArgs := likeAny("UPPER(a.assignee_name_alias)", clean)

	var direct, viaAlias []AssigneeMatch
	err := withRetry(ctx, r.log, r.policy, "search_assignees", func() error {
		direct, viaAlias = nil, nil
		if err := t.WithContext(ctx).
			Table("canonical_assignee_name AS c").
			Select("c.id AS canonical_id, c.canonical_assignee_name AS canonical_name, c.canonical_assignee_name AS text").
			Where(canonConds, canonArgs...).
			Order("c.canonical_assignee_name").
			Limit(limit).
			Scan(&direct).Error; err != nil {
			return err
		}
		return t.WithContext(ctx).
			Table("assignee_alias AS a").
			Select("c.id AS canonical_id, c.canonical_assignee_name AS canonical_name, a.assignee_name_alias AS text").
			Joins("JOIN canonical_assignee_name c ON c.id = a.canonical_id").
			Where(aliasConds, aliasArgs...).
			Order("a.assignee_name_alias").
			Limit(limit).
			Scan(&viaAlias).Error
	})
	if err != nil {
		return nil, fmt.Errorf("search assignees: %w", err)
	}

	seen := map[string]bool{}
	out := make([]AssigneeMatch, 0, len(direct)+len(viaAlias))
	for _, m := range append(direct, viaAlias...) {
		key := m.CanonicalID.String() + "\x00" + m.Text
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out, nil
}

func likeAny(column string, patterns []string) (string, []any) {
	conds := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns))
	for _, p := range patterns {
		conds = append(conds, column+" LIKE ?")
		args = append(args, p)
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// EnsureCanonical inserts name if absent and returns its id.
func (r *assigneeRepo) EnsureCanonical(ctx context.Context, tx *gorm.DB, name string) (uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("ensure canonical: empty name")
	}
	row := &types.CanonicalAssigneeName{ID: uuid.New(), CanonicalName: name}
	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "canonical_assignee_name"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("ensure canonical: %w", err)
	}
	var existing types.CanonicalAssigneeName
	if err := t.WithContext(ctx).
		Where("canonical_assignee_name = ?", name).
		First(&existing).Error; err != nil {
		return uuid.Nil, fmt.Errorf("ensure canonical lookup: %w", err)
	}
	return existing.ID, nil
}

// EnsureAlias records alias under canonicalID unless the alias already exists.
// The id of the stored alias row is returned either way.
func (r *assigneeRepo) EnsureAlias(ctx context.Context, tx *gorm.DB, canonicalID uuid.UUID, alias string) (uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	alias = strings.TrimSpace(alias)
	if alias == "" || canonicalID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("ensure alias: alias and canonical id required")
	}
	row := &types.AssigneeAlias{ID: uuid.New(), CanonicalID: canonicalID, Alias: alias}
	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignee_name_alias"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("ensure alias: %w", err)
	}
	var existing types.AssigneeAlias
	if err := t.WithContext(ctx).
		Where("assignee_name_alias = ?", alias).
		First(&existing).Error; err != nil {
		return uuid.Nil, fmt.Errorf("ensure alias lookup: %w", err)
	}
	return existing.ID, nil
}

// LinkPatents points every patent carrying the raw alias at its canonical name.
func (r *assigneeRepo) LinkPatents(ctx context.Context, tx *gorm.DB, alias string, aliasID, canonicalID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.Patent{}).
		Where("assignee_name = ?", alias).
		Updates(map[string]interface{}{
			"assignee_alias_id":          aliasID,
			"canonical_assignee_name_id": canonicalID,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("link patents: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListDistinctAssigneeNames pages through raw assignee names in ascending
// order, starting strictly after `after`.
func (r *assigneeRepo) ListDistinctAssigneeNames(ctx context.Context, tx *gorm.DB, after string, limit int) ([]string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 1000
	}
	var out []string
	err := withRetry(ctx, r.log, r.policy, "list_assignee_names", func() error {
		out = nil
		return t.WithContext(ctx).
			Model(&types.Patent{}).
			Distinct("assignee_name").
			Where("assignee_name IS NOT NULL AND assignee_name <> '' AND assignee_name > ?", after).
			Order("assignee_name").
			Limit(limit).
			Pluck("assignee_name", &out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list assignee names: %w", err)
	}
	return out, nil
}
