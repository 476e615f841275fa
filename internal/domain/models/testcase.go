package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestCase is a node in the per-project case tree. Folder nodes organize the
// hierarchy; leaf nodes carry the executable content.
type TestCase struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	ParentID       *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name           string     `gorm:"size:255;not null;index" json:"name"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	Priority       string     `gorm:"size:20;not null;default:medium" json:"priority"`
	Status         string     `gorm:"size:20;not null;default:draft" json:"status"`
	Tags           string     `gorm:"size:500" json:"tags"`
	GherkinContent *string    `gorm:"type:text" json:"gherkin_content,omitempty"`
	IsAutomated    bool       `gorm:"default:false" json:"is_automated"`
	IsFolder       bool       `gorm:"default:false" json:"is_folder"`
	SortOrder      int        `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Project  Project        `gorm:"foreignKey:ProjectID" json:"-"`
	Parent   *TestCase      `gorm:"foreignKey:ParentID" json:"-"`
	Children []TestCase     `gorm:"foreignKey:ParentID" json:"-"`
	Files    []TestCaseFile `gorm:"foreignKey:TestCaseID" json:"-"`
}

func (TestCase) TableName() string {
	return "test_cases"
}

func (c *TestCase) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TestCaseFile is an attachment (Gherkin feature or YAML config) on a leaf
// test case. Files are soft-deleted via is_active.
type TestCaseFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TestCaseID uuid.UUID `gorm:"type:uuid;index;not null" json:"test_case_id"`
	Name       string    `gorm:"size:255;not null;index" json:"name"`
	FileType   string    `gorm:"size:20;not null" json:"file_type"`
	Content    string    `gorm:"type:text" json:"content"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	Version    string    `gorm:"size:50;default:v1.0" json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	TestCase TestCase `gorm:"foreignKey:TestCaseID" json:"-"`
}

func (TestCaseFile) TableName() string {
	return "test_case_files"
}

func (f *TestCaseFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *TestCaseFile) Extension() string {
	switch f.FileType {
	case FileTypeFeature:
		return ".feature"
	case FileTypeYAML:
		return ".yaml"
	}
	return ""
}

// FullName returns the file name with its type extension appended once.
func (f *TestCaseFile) FullName() string {
	ext := f.Extension()
	if ext == "" || strings.HasSuffix(f.Name, ext) {
		return f.Name
	}
	return f.Name + ext
}
