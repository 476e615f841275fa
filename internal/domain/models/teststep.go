package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestStep is a reusable step definition shared by test cases within a project.
type TestStep struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"project_id"`
	Name         string      `gorm:"size:255;not null;index" json:"name"`
	Description  *string     `gorm:"type:text" json:"description,omitempty"`
	Type         string      `gorm:"size:20;not null" json:"type"`
	Parameters   StringArray `gorm:"type:text[]" json:"parameters,omitempty"`
	Decorator    *string     `gorm:"size:100" json:"decorator,omitempty"`
	UsageExample *string     `gorm:"type:text" json:"usage_example,omitempty"`
	FunctionName *string     `gorm:"size:255" json:"function_name,omitempty"`
	UsageCount   int         `gorm:"default:0" json:"usage_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (TestStep) TableName() string {
	return "test_steps"
}

func (s *TestStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
