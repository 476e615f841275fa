package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestExecution struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	Name         string     `gorm:"size:255;not null;index" json:"name"`
	Description  *string    `gorm:"type:text" json:"description,omitempty"`
	Status       string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Progress     float64    `gorm:"default:0" json:"progress"`
	PassRate     float64    `gorm:"default:0" json:"pass_rate"`
	TotalCases   int        `gorm:"default:0" json:"total_cases"`
	PassedCases  int        `gorm:"default:0" json:"passed_cases"`
	FailedCases  int        `gorm:"default:0" json:"failed_cases"`
	SkippedCases int        `gorm:"default:0" json:"skipped_cases"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Duration     *int       `json:"duration,omitempty"`
	ExecutedBy   *string    `gorm:"size:255" json:"executed_by,omitempty"`

	// Runner parameters
	Environment string `gorm:"size:50;default:test" json:"environment"`
	Browser     string `gorm:"size:20;default:chromium" json:"browser"`
	Headless    bool   `gorm:"default:true" json:"headless"`

	// Selection and results
	ExecutionConfig JSON    `gorm:"type:jsonb" json:"execution_config,omitempty"`
	ErrorMessage    *string `gorm:"type:text" json:"error_message,omitempty"`
	ExecutionLog    *string `gorm:"type:text" json:"execution_log,omitempty"`
	ReportPath      *string `gorm:"size:500" json:"report_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project     Project          `gorm:"foreignKey:ProjectID" json:"-"`
	StepResults []TestStepResult `gorm:"foreignKey:ExecutionID" json:"-"`
}

func (TestExecution) TableName() string {
	return "test_executions"
}

func (e *TestExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TestCaseIDs returns the resolved case selection recorded at creation time.
func (e *TestExecution) TestCaseIDs() []uuid.UUID {
	raw, ok := e.ExecutionConfig["test_case_ids"].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// CalculateProgress recomputes progress as the share of settled cases.
func (e *TestExecution) CalculateProgress() {
	if e.TotalCases > 0 {
		settled := e.PassedCases + e.FailedCases + e.SkippedCases
		e.Progress = float64(settled) / float64(e.TotalCases) * 100
	} else {
		e.Progress = 0
	}
}

// CalculatePassRate recomputes the pass rate, guarding the zero-total case.
func (e *TestExecution) CalculatePassRate() {
	if e.TotalCases > 0 {
		e.PassRate = float64(e.PassedCases) / float64(e.TotalCases) * 100
	} else {
		e.PassRate = 0
	}
}

type TestStepResult struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExecutionID   uuid.UUID `gorm:"type:uuid;index;not null" json:"execution_id"`
	StepName      string    `gorm:"size:255;not null" json:"step_name"`
	Keyword       *string   `gorm:"size:50" json:"keyword,omitempty"`
	Result        string    `gorm:"size:20;not null" json:"result"`
	Message       *string   `gorm:"type:text" json:"message,omitempty"`
	Screenshot    *string   `gorm:"size:500" json:"screenshot,omitempty"`
	ExecutionTime float64   `gorm:"default:0" json:"execution_time"`
	CreatedAt     time.Time `json:"created_at"`

	Execution TestExecution `gorm:"foreignKey:ExecutionID" json:"-"`
}

func (TestStepResult) TableName() string {
	return "test_step_results"
}

func (r *TestStepResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
