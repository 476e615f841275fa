package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Status      string    `gorm:"size:20;not null;default:active" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	TestCases      []TestCase      `gorm:"foreignKey:ProjectID" json:"-"`
	TestSteps      []TestStep      `gorm:"foreignKey:ProjectID" json:"-"`
	DataNodes      []TestDataNode  `gorm:"foreignKey:ProjectID" json:"-"`
	TradeTemplates []TradeTemplate `gorm:"foreignKey:ProjectID" json:"-"`
	Executions     []TestExecution `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
