package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
)

// PatentSeed describes one row of fixture corpus.
type PatentSeed struct {
	PubID    string
	PubDate  int
	Title    string
	Abstract string
	Assignee string
	CPC      []string
	Model    string
	Vector   []float64
	Canon    *uuid.UUID
}

func SeedPatent(tb testing.TB, ctx context.Context, tx *gorm.DB, s PatentSeed) *types.Patent {
	tb.Helper()
	p := &types.Patent{
		PubID:                   s.PubID,
		Title:                   s.Title,
		Abstract:                s.Abstract,
		AssigneeName:            s.Assignee,
		CanonicalAssigneeNameID: s.Canon,
	}
	if s.PubDate != 0 {
		d := s.PubDate
		p.PubDate = &d
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed patent: %v", err)
	}
	for _, code := range s.CPC {
		if err := tx.WithContext(ctx).Create(&types.PatentCPC{PubID: s.PubID, Code: code}).Error; err != nil {
			tb.Fatalf("seed cpc: %v", err)
		}
	}
	if s.Vector != nil {
		model := s.Model
		if model == "" {
			model = "test|ta"
		}
		raw, err := json.Marshal(s.Vector)
		if err != nil {
			tb.Fatalf("marshal vector: %v", err)
		}
		e := &types.PatentEmbedding{PubID: s.PubID, Model: model, Embedding: datatypes.JSON(raw)}
		if err := tx.WithContext(ctx).Create(e).Error; err != nil {
			tb.Fatalf("seed embedding: %v", err)
		}
	}
	return p
}

func SeedCanonical(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, aliases ...string) *types.CanonicalAssigneeName {
	tb.Helper()
	c := &types.CanonicalAssigneeName{ID: uuid.New(), CanonicalName: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed canonical: %v", err)
	}
	for _, a := range aliases {
		if err := tx.WithContext(ctx).Create(&types.AssigneeAlias{CanonicalID: c.ID, Alias: a}).Error; err != nil {
			tb.Fatalf("seed alias: %v", err)
		}
	}
	return c
}
