package whitespace

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Patent is one publication. PubDate is a YYYYMMDD integer; nil or malformed
// values are treated as undated.
type Patent struct {
	PubID                   string     `gorm:"column:pub_id;primaryKey" json:"pub_id"`
	PubDate                 *int       `gorm:"column:pub_date;index" json:"pub_date,omitempty"`
	Title                   string     `gorm:"column:title;type:text" json:"title,omitempty"`
	Abstract                string     `gorm:"column:abstract;type:text" json:"abstract,omitempty"`
	AssigneeName            string     `gorm:"column:assignee_name;index" json:"assignee_name,omitempty"`
	AssigneeAliasID         *uuid.UUID `gorm:"column:assignee_alias_id;type:uuid" json:"assignee_alias_id,omitempty"`
	CanonicalAssigneeNameID *uuid.UUID `gorm:"column:canonical_assignee_name_id;type:uuid;index" json:"canonical_assignee_name_id,omitempty"`
}

func (Patent) TableName() string { return "patent" }

// PatentCPC holds one flattened classification code per row, e.g. "H04L9/32".
type PatentCPC struct {
	PubID string `gorm:"column:pub_id;primaryKey" json:"pub_id"`
	Code  string `gorm:"column:code;primaryKey;index" json:"code"`
}

func (PatentCPC) TableName() string { return "patent_cpc" }

// PatentEmbedding stores a vector as a JSON array of floats.
type PatentEmbedding struct {
	PubID     string         `gorm:"column:pub_id;primaryKey" json:"pub_id"`
	Model     string         `gorm:"column:model;primaryKey;index" json:"model"`
	Embedding datatypes.JSON `gorm:"column:embedding" json:"embedding"`
}

func (PatentEmbedding) TableName() string { return "patent_embeddings" }
