package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TradeTemplate is a node in the per-project trade message template tree.
// Deletion is a recursive soft delete via is_active; inactive rows stay in
// the table but never appear in reads.
type TradeTemplate struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	ParentID          *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name              string     `gorm:"size:255;not null;index" json:"name"`
	Description       *string    `gorm:"type:text" json:"description,omitempty"`
	NodeType          string     `gorm:"size:20;not null" json:"node_type"`
	SortOrder         int        `gorm:"default:0" json:"sort_order"`
	Content           *string    `gorm:"type:text" json:"content,omitempty"`
	TemplateVariables JSON       `gorm:"type:jsonb" json:"template_variables,omitempty"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	Version           string     `gorm:"size:50;default:v1.0" json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Project  Project         `gorm:"foreignKey:ProjectID" json:"-"`
	Parent   *TradeTemplate  `gorm:"foreignKey:ParentID" json:"-"`
	Children []TradeTemplate `gorm:"foreignKey:ParentID" json:"-"`
}

func (TradeTemplate) TableName() string {
	return "trade_templates"
}

func (t *TradeTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
