package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"gorm.io/gorm"
)

type ExecutionService struct {
	executionRepo  *repositories.ExecutionRepository
	stepResultRepo *repositories.StepResultRepository
	caseRepo       *repositories.TestCaseRepository
	projectRepo    *repositories.ProjectRepository
}

func NewExecutionService(
	executionRepo *repositories.ExecutionRepository,
	stepResultRepo *repositories.StepResultRepository,
	caseRepo *repositories.TestCaseRepository,
	projectRepo *repositories.ProjectRepository,
) *ExecutionService {
	return &ExecutionService{
		executionRepo:  executionRepo,
		stepResultRepo: stepResultRepo,
		caseRepo:       caseRepo,
		projectRepo:    projectRepo,
	}
}

type CreateExecutionInput struct {
	ProjectID   uuid.UUID
	Name        string
	Description *string
	TestCaseIDs []uuid.UUID
	Tags        []string
	Environment string
	Browser     string
	Headless    *bool
}

// Create resolves the case selection up front so the stored execution carries
// a fixed set of case IDs regardless of later edits to the suite.
func (s *ExecutionService) Create(ctx context.Context, input CreateExecutionInput) (*models.TestExecution, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var selected []models.TestCase
	if len(input.TestCaseIDs) > 0 {
		found, err := s.caseRepo.FindByIDs(ctx, input.TestCaseIDs)
		if err != nil {
			return nil, err
		}
		if len(found) != len(input.TestCaseIDs) {
			return nil, ErrNotFound
		}
		selected = found
	} else if len(input.Tags) > 0 {
		found, err := s.caseRepo.FindLeavesByTags(ctx, input.ProjectID, input.Tags)
		if err != nil {
			return nil, err
		}
		selected = found
	}

	environment := input.Environment
	if environment == "" {
		environment = "test"
	}
	browser := input.Browser
	if browser == "" {
		browser = "chromium"
	}
	headless := true
	if input.Headless != nil {
		headless = *input.Headless
	}

	caseIDs := make([]interface{}, 0, len(selected))
	for _, tc := range selected {
		caseIDs = append(caseIDs, tc.ID.String())
	}
	tags := make([]interface{}, 0, len(input.Tags))
	for _, tag := range input.Tags {
		tags = append(tags, tag)
	}

	execution := &models.TestExecution{
		ProjectID:   input.ProjectID,
		Name:        input.Name,
		Description: input.Description,
		Status:      models.ExecutionStatusPending,
		TotalCases:  len(selected),
		Environment: environment,
		Browser:     browser,
		Headless:    headless,
		ExecutionConfig: models.JSON{
			"test_case_ids": caseIDs,
			"tags":          tags,
			"environment":   environment,
			"browser":       browser,
			"headless":      headless,
		},
	}
	if err := s.executionRepo.Create(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

func (s *ExecutionService) Get(ctx context.Context, id uuid.UUID) (*models.TestExecution, error) {
	execution, err := s.executionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return execution, nil
}

func (s *ExecutionService) List(ctx context.Context, projectID uuid.UUID, status string, opts *repositories.ListOptions) ([]models.TestExecution, int64, error) {
	return s.executionRepo.FindByProject(ctx, projectID, status, opts)
}

// Cancel moves a pending or running execution to cancelled. Terminal
// executions are refused; the conditional update closes the race with a
// worker finishing at the same moment.
func (s *ExecutionService) Cancel(ctx context.Context, id uuid.UUID) (*models.TestExecution, error) {
	execution, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalStatus(execution.Status) {
		return nil, ErrNotCancellable
	}

	affected, err := s.executionRepo.UpdateStatusIfNotTerminal(ctx, id, models.ExecutionStatusCancelled)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotCancellable
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCancelled
	execution.CompletedAt = &now
	if execution.StartedAt != nil {
		duration := int(now.Sub(*execution.StartedAt).Seconds())
		execution.Duration = &duration
	}
	if err := s.executionRepo.Update(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// MarkRunning claims a pending execution for a worker, recording which worker
// took it. The bool reports whether the claim won; losing means the execution
// was cancelled or already picked up.
func (s *ExecutionService) MarkRunning(ctx context.Context, id uuid.UUID, executorID string) (bool, error) {
	affected, err := s.executionRepo.MarkRunning(ctx, id, time.Now().UTC(), executorID)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *ExecutionService) StepResults(ctx context.Context, executionID uuid.UUID) ([]models.TestStepResult, error) {
	if _, err := s.Get(ctx, executionID); err != nil {
		return nil, err
	}
	return s.stepResultRepo.FindByExecution(ctx, executionID)
}

type AddStepResultInput struct {
	StepName      string
	Keyword       *string
	Result        string
	Message       *string
	Screenshot    *string
	ExecutionTime float64
}

// AddStepResult records a single step outcome reported back by the runner
// while an execution is still in flight.
func (s *ExecutionService) AddStepResult(ctx context.Context, executionID uuid.UUID, input AddStepResultInput) (*models.TestStepResult, error) {
	if _, err := s.Get(ctx, executionID); err != nil {
		return nil, err
	}

	result := &models.TestStepResult{
		ExecutionID:   executionID,
		StepName:      input.StepName,
		Keyword:       input.Keyword,
		Result:        input.Result,
		Message:       input.Message,
		Screenshot:    input.Screenshot,
		ExecutionTime: input.ExecutionTime,
	}
	if err := s.stepResultRepo.Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExecutionOutcome is what a finished runner invocation produced.
type ExecutionOutcome struct {
	ExitCode    int
	Passed      int
	Failed      int
	Skipped     int
	Total       int
	Stdout      string
	Stderr      string
	ReportPath  *string
	StepResults []models.TestStepResult
}

// RecordOutcome persists the final counters, log output and status for an
// execution. The status write is conditional so a cancel that landed during
// the run is not overwritten.
func (s *ExecutionService) RecordOutcome(ctx context.Context, id uuid.UUID, outcome ExecutionOutcome) (*models.TestExecution, error) {
	execution, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	execution.PassedCases = outcome.Passed
	execution.FailedCases = outcome.Failed
	execution.SkippedCases = outcome.Skipped
	if outcome.Total > 0 {
		execution.TotalCases = outcome.Total
	}
	execution.CalculateProgress()
	execution.CalculatePassRate()

	now := time.Now().UTC()
	execution.CompletedAt = &now
	if execution.StartedAt != nil {
		duration := int(now.Sub(*execution.StartedAt).Seconds())
		execution.Duration = &duration
	}
	if outcome.Stdout != "" {
		execution.ExecutionLog = &outcome.Stdout
	}
	if outcome.Stderr != "" {
		execution.ErrorMessage = &outcome.Stderr
	}
	execution.ReportPath = outcome.ReportPath

	if err := s.executionRepo.Update(ctx, execution); err != nil {
		return nil, err
	}

	if len(outcome.StepResults) > 0 {
		for i := range outcome.StepResults {
			outcome.StepResults[i].ExecutionID = id
		}
		if err := s.stepResultRepo.CreateBatch(ctx, outcome.StepResults); err != nil {
			return nil, err
		}
	}

	status := models.ExecutionStatusCompleted
	if outcome.ExitCode != 0 {
		status = models.ExecutionStatusFailed
	}
	affected, err := s.executionRepo.UpdateStatusIfNotTerminal(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if affected > 0 {
		execution.Status = status
	} else {
		refreshed, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		execution.Status = refreshed.Status
	}
	return execution, nil
}

// Fail marks an execution failed with an error message, used when the run
// could not even start.
func (s *ExecutionService) Fail(ctx context.Context, id uuid.UUID, message string) error {
	execution, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	execution.ErrorMessage = &message
	execution.CompletedAt = &now
	if execution.StartedAt != nil {
		duration := int(now.Sub(*execution.StartedAt).Seconds())
		execution.Duration = &duration
	}
	if err := s.executionRepo.Update(ctx, execution); err != nil {
		return err
	}

	_, err = s.executionRepo.UpdateStatusIfNotTerminal(ctx, id, models.ExecutionStatusFailed)
	return err
}

// ReportSummary aggregates execution history, optionally scoped to one
// project.
type ReportSummary struct {
	TotalExecutions     int                    `json:"total_executions"`
	CompletedExecutions int                    `json:"completed_executions"`
	FailedExecutions    int                    `json:"failed_executions"`
	RunningExecutions   int                    `json:"running_executions"`
	TotalScenarios      int                    `json:"total_scenarios"`
	PassedScenarios     int                    `json:"passed_scenarios"`
	FailedScenarios     int                    `json:"failed_scenarios"`
	PassRate            float64                `json:"pass_rate"`
	RecentExecutions    []models.TestExecution `json:"recent_executions"`
}

func (s *ExecutionService) Summary(ctx context.Context, projectID *uuid.UUID) (*ReportSummary, error) {
	executions, err := s.executionRepo.FindAllByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &ReportSummary{RecentExecutions: []models.TestExecution{}}
	summary.TotalExecutions = len(executions)
	for _, e := range executions {
		switch e.Status {
		case models.ExecutionStatusCompleted:
			summary.CompletedExecutions++
		case models.ExecutionStatusFailed:
			summary.FailedExecutions++
		case models.ExecutionStatusRunning:
			summary.RunningExecutions++
		}
		summary.TotalScenarios += e.TotalCases
		summary.PassedScenarios += e.PassedCases
		summary.FailedScenarios += e.FailedCases
	}
	if summary.TotalScenarios > 0 {
		summary.PassRate = float64(summary.PassedScenarios) / float64(summary.TotalScenarios) * 100
	}

	recent, err := s.executionRepo.FindRecent(ctx, projectID, 10)
	if err != nil {
		return nil, err
	}
	summary.RecentExecutions = recent

	return summary, nil
}

// ReapStale fails executions stuck in running longer than cutoff allows.
func (s *ExecutionService) ReapStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.executionRepo.FindStaleRunning(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, e := range stale {
		if err := s.Fail(ctx, e.ID, "execution timed out while running"); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
