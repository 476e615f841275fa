package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestDataNode is a node in the per-project test data tree. Folder nodes
// organize the hierarchy, data nodes hold literal JSON, template nodes hold
// a renderable body plus default variables.
type TestDataNode struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	ParentID          *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name              string     `gorm:"size:255;not null;index" json:"name"`
	Description       *string    `gorm:"type:text" json:"description,omitempty"`
	NodeType          string     `gorm:"size:20;not null" json:"node_type"`
	SortOrder         int        `gorm:"default:0" json:"sort_order"`
	DataContent       JSON       `gorm:"type:jsonb" json:"data_content,omitempty"`
	Template          *string    `gorm:"type:text" json:"template,omitempty"`
	TemplateVariables JSON       `gorm:"type:jsonb" json:"template_variables,omitempty"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	Version           string     `gorm:"size:50;default:v1.0" json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Project  Project        `gorm:"foreignKey:ProjectID" json:"-"`
	Parent   *TestDataNode  `gorm:"foreignKey:ParentID" json:"-"`
	Children []TestDataNode `gorm:"foreignKey:ParentID" json:"-"`
}

func (TestDataNode) TableName() string {
	return "test_data_nodes"
}

func (n *TestDataNode) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
