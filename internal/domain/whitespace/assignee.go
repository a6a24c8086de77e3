package whitespace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CanonicalAssigneeName struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CanonicalName string    `gorm:"column:canonical_assignee_name;not null;uniqueIndex" json:"canonical_assignee_name"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CanonicalAssigneeName) TableName() string { return "canonical_assignee_name" }

func (c *CanonicalAssigneeName) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AssigneeAlias maps one raw assignee string to its canonical name.
type AssigneeAlias struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CanonicalID uuid.UUID `gorm:"column:canonical_id;type:uuid;not null;index" json:"canonical_id"`
	Alias       string    `gorm:"column:assignee_name_alias;not null;uniqueIndex" json:"assignee_name_alias"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AssigneeAlias) TableName() string { return "assignee_alias" }

func (a *AssigneeAlias) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
