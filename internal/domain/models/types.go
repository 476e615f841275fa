package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

// JSON type for JSONB columns
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("failed to scan JSON: unsupported source type")
	}
}

// JSONArray type for JSONB array columns
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("failed to scan JSONArray: unsupported source type")
	}
}

// StringArray type for text[] columns
type StringArray = pq.StringArray

// Project status constants
const (
	ProjectStatusActive    = "active"
	ProjectStatusPaused    = "paused"
	ProjectStatusCompleted = "completed"
)

// Test case priority constants
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Test case status constants
const (
	CaseStatusDraft    = "draft"
	CaseStatusPending  = "pending"
	CaseStatusApproved = "approved"
	CaseStatusRejected = "rejected"
)

// Test step type constants
const (
	StepTypeAction       = "action"
	StepTypeVerification = "verification"
	StepTypeSetup        = "setup"
)

// Test case file type constants
const (
	FileTypeFeature = "feature"
	FileTypeYAML    = "yaml"
)

// Test data node kind constants
const (
	DataNodeFolder   = "folder"
	DataNodeTemplate = "template"
	DataNodeData     = "data"
)

// Trade template node kind constants
const (
	TemplateNodeFolder   = "folder"
	TemplateNodeTemplate = "template"
)

// Execution status constants
const (
	ExecutionStatusPending   = "pending"
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
	ExecutionStatusCancelled = "cancelled"
)

// Step result constants
const (
	StepResultPass    = "pass"
	StepResultFail    = "fail"
	StepResultSkip    = "skip"
	StepResultBlocked = "blocked"
)

// IsTerminalStatus reports whether an execution status can no longer change.
func IsTerminalStatus(status string) bool {
	switch status {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}
