package dto

import (
	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
)

// Projects
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      string  `json:"status,omitempty" validate:"omitempty,projectstatus"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      *string `json:"status,omitempty" validate:"omitempty,projectstatus"`
}

// Test steps
type CreateTestStepRequest struct {
	ProjectID    uuid.UUID `json:"project_id" validate:"required"`
	Name         string    `json:"name" validate:"required,min=1,max=255"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Type         string    `json:"type" validate:"required,steptype"`
	Parameters   []string  `json:"parameters,omitempty"`
	Decorator    *string   `json:"decorator,omitempty" validate:"omitempty,max=255"`
	UsageExample *string   `json:"usage_example,omitempty"`
	FunctionName *string   `json:"function_name,omitempty" validate:"omitempty,max=255"`
}

type UpdateTestStepRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Type         *string  `json:"type,omitempty" validate:"omitempty,steptype"`
	Parameters   []string `json:"parameters,omitempty"`
	Decorator    *string  `json:"decorator,omitempty" validate:"omitempty,max=255"`
	UsageExample *string  `json:"usage_example,omitempty"`
	FunctionName *string  `json:"function_name,omitempty" validate:"omitempty,max=255"`
}

// Test cases
type CreateTestCaseRequest struct {
	ProjectID      uuid.UUID  `json:"project_id" validate:"required"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	Name           string     `json:"name" validate:"required,min=1,max=255"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Priority       string     `json:"priority,omitempty" validate:"omitempty,priority"`
	Status         string     `json:"status,omitempty" validate:"omitempty,casestatus"`
	Tags           *string    `json:"tags,omitempty" validate:"omitempty,max=500"`
	GherkinContent *string    `json:"gherkin_content,omitempty"`
	IsAutomated    bool       `json:"is_automated"`
	IsFolder       bool       `json:"is_folder"`
	SortOrder      int        `json:"sort_order"`
}

type UpdateTestCaseRequest struct {
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	ClearParent    bool       `json:"clear_parent,omitempty"`
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Priority       *string    `json:"priority,omitempty" validate:"omitempty,priority"`
	Status         *string    `json:"status,omitempty" validate:"omitempty,casestatus"`
	Tags           *string    `json:"tags,omitempty" validate:"omitempty,max=500"`
	GherkinContent *string    `json:"gherkin_content,omitempty"`
	IsAutomated    *bool      `json:"is_automated,omitempty"`
	SortOrder      *int       `json:"sort_order,omitempty"`
}

type CreateTestCaseFileRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	FileType string `json:"file_type" validate:"required,filetype"`
	Content  string `json:"content"`
	Version  string `json:"version,omitempty" validate:"omitempty,max=50"`
}

type UpdateTestCaseFileRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content,omitempty"`
	Version *string `json:"version,omitempty" validate:"omitempty,max=50"`
}

// Test data nodes
type CreateTestDataNodeRequest struct {
	ProjectID         uuid.UUID   `json:"project_id" validate:"required"`
	ParentID          *uuid.UUID  `json:"parent_id,omitempty"`
	Name              string      `json:"name" validate:"required,min=1,max=255"`
	Description       *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	NodeType          string      `json:"node_type" validate:"required,datanodetype"`
	SortOrder         int         `json:"sort_order"`
	DataContent       models.JSON `json:"data_content,omitempty"`
	Template          *string     `json:"template,omitempty"`
	TemplateVariables models.JSON `json:"template_variables,omitempty"`
	Version           string      `json:"version,omitempty" validate:"omitempty,max=50"`
}

type UpdateTestDataNodeRequest struct {
	ParentID          *uuid.UUID  `json:"parent_id,omitempty"`
	ClearParent       bool        `json:"clear_parent,omitempty"`
	Name              *string     `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description       *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	SortOrder         *int        `json:"sort_order,omitempty"`
	DataContent       models.JSON `json:"data_content,omitempty"`
	Template          *string     `json:"template,omitempty"`
	TemplateVariables models.JSON `json:"template_variables,omitempty"`
	Version           *string     `json:"version,omitempty" validate:"omitempty,max=50"`
}

// Trade templates
type CreateTradeTemplateRequest struct {
	ProjectID         uuid.UUID   `json:"project_id" validate:"required"`
	ParentID          *uuid.UUID  `json:"parent_id,omitempty"`
	Name              string      `json:"name" validate:"required,min=1,max=255"`
	Description       *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	NodeType          string      `json:"node_type" validate:"required,templatenodetype"`
	SortOrder         int         `json:"sort_order"`
	Content           *string     `json:"content,omitempty"`
	TemplateVariables models.JSON `json:"template_variables,omitempty"`
	Version           string      `json:"version,omitempty" validate:"omitempty,max=50"`
}

type UpdateTradeTemplateRequest struct {
	ParentID          *uuid.UUID  `json:"parent_id,omitempty"`
	ClearParent       bool        `json:"clear_parent,omitempty"`
	Name              *string     `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description       *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	SortOrder         *int        `json:"sort_order,omitempty"`
	Content           *string     `json:"content,omitempty"`
	TemplateVariables models.JSON `json:"template_variables,omitempty"`
	Version           *string     `json:"version,omitempty" validate:"omitempty,max=50"`
}

type RenderRequest struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type RenderTextRequest struct {
	Text      string                 `json:"text" validate:"required"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Executions
type CreateExecutionRequest struct {
	ProjectID   uuid.UUID   `json:"project_id" validate:"required"`
	Name        string      `json:"name" validate:"required,min=1,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	TestCaseIDs []uuid.UUID `json:"test_case_ids,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Environment string      `json:"environment,omitempty" validate:"omitempty,max=50"`
	Browser     string      `json:"browser,omitempty" validate:"omitempty,browser"`
	Headless    *bool       `json:"headless,omitempty"`
	Priority    string      `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
}

// ExecutionPriorityHigh routes the run onto the critical queue ahead of
// normally-queued executions.
const ExecutionPriorityHigh = "high"

type AddStepResultRequest struct {
	StepName      string  `json:"step_name" validate:"required,min=1,max=500"`
	Keyword       *string `json:"keyword,omitempty" validate:"omitempty,max=50"`
	Result        string  `json:"result" validate:"required,stepresult"`
	Message       *string `json:"message,omitempty"`
	Screenshot    *string `json:"screenshot,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}
