package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Corpus
		&types.Patent{},
		&types.PatentCPC{},
		&types.PatentEmbedding{},
		// Assignee identity
		&types.CanonicalAssigneeName{},
		&types.AssigneeAlias{},
		// Per-user analysis output
		&types.KnnEdge{},
		&types.UserWhitespaceAnalysis{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
