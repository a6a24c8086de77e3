package whitespace

import (
	"context"
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/engine"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// Population is the loaded, row-normalized input of one analysis.
type Population struct {
	Model   string
	X       *mat.Dense
	Records []types.EmbeddingRecord
}

// Loader resolves the embedding model and turns storage rows into records.
type Loader struct {
	repo      repos.EmbeddingRepo
	log       *logger.Logger
	preferred string
}

func NewLoader(log *logger.Logger, repo repos.EmbeddingRepo, preferredModel string) *Loader {
	return &Loader{repo: repo, log: log.With("component", "EmbeddingLoader"), preferred: preferredModel}
}

// Load fetches the filtered population. Rows whose vector does not decode, is
// empty, or disagrees with the first vector's dimension are skipped.
func (l *Loader) Load(ctx context.Context, f repos.LoadFilter) (*Population, error) {
	model, err := l.repo.PickModel(ctx, nil, l.preferred)
	if err != nil {
		return nil, err
	}
	f.Model = model
	rows, err := l.repo.Load(ctx, nil, f)
	if err != nil {
		return nil, err
	}

	var (
		vectors [][]float64
		records []types.EmbeddingRecord
		skipped int
		dim     int
	)
	for _, row := range rows {
		var v []float64
		if err := json.Unmarshal(row.Embedding, &v); err != nil || len(v) == 0 {
			skipped++
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			skipped++
			continue
		}
		rec := types.EmbeddingRecord{
			ID:       row.PubID,
			Assignee: row.AssigneeName,
			Title:    row.Title,
			Abstract: row.Abstract,
			IsFocus:  row.IsFocus,
		}
		if row.PubDate != nil {
			if d, ok := types.DateFromInt(*row.PubDate); ok {
				rec.PubDate = &d
			}
		}
		vectors = append(vectors, v)
		records = append(records, rec)
	}
	if skipped > 0 {
		l.log.Warn("skipped malformed embeddings", "model", model, "skipped", skipped, "loaded", len(records))
	}
	if len(records) == 0 {
		return &Population{Model: model}, nil
	}
	X, err := engine.NormalizeRows(vectors)
	if err != nil {
		return nil, fmt.Errorf("normalize embeddings: %w", err)
	}
	for i := range records {
		records[i].Vector = X.RawRowView(i)
	}
	return &Population{Model: model, X: X, Records: records}, nil
}
