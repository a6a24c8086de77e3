package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

type Repos struct {
	Embeddings repos.EmbeddingRepo
	Assignees  repos.AssigneeRepo
	Analysis   repos.AnalysisRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Embeddings: repos.NewEmbeddingRepo(db, log),
		Assignees:  repos.NewAssigneeRepo(db, log),
		Analysis:   repos.NewAnalysisRepo(db, log),
	}
}
