package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type ExecutionRepository struct {
	*BaseRepository[models.TestExecution]
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{
		BaseRepository: NewBaseRepository[models.TestExecution](db),
	}
}

func (r *ExecutionRepository) FindByProject(ctx context.Context, projectID uuid.UUID, status string, opts *ListOptions) ([]models.TestExecution, int64, error) {
	var executions []models.TestExecution
	var total int64

	query := r.DB().WithContext(ctx).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Model(&models.TestExecution{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("created_at DESC"))
	}

	err := query.Find(&executions).Error
	return executions, total, err
}

func (r *ExecutionRepository) FindByStatus(ctx context.Context, status string, opts *ListOptions) ([]models.TestExecution, int64, error) {
	var executions []models.TestExecution
	var total int64

	query := r.DB().WithContext(ctx).Where("status = ?", status)
	query.Model(&models.TestExecution{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("created_at DESC"))
	}

	err := query.Find(&executions).Error
	return executions, total, err
}

// MarkRunning flips a pending execution to running and stamps the start time.
// Returns the number of rows changed so callers can detect a lost race
// (e.g. the execution was cancelled before the worker picked it up).
func (r *ExecutionRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time, executorID string) (int64, error) {
	result := r.DB().WithContext(ctx).Model(&models.TestExecution{}).
		Where("id = ? AND status = ?", id, models.ExecutionStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ExecutionStatusRunning,
			"started_at":  startedAt,
			"executed_by": executorID,
		})
	return result.RowsAffected, result.Error
}

// UpdateStatusIfNotTerminal writes a new status only when the current status
// is still non-terminal; terminal statuses are immutable.
func (r *ExecutionRepository) UpdateStatusIfNotTerminal(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	result := r.DB().WithContext(ctx).Model(&models.TestExecution{}).
		Where("id = ? AND status IN ?", id, []string{
			models.ExecutionStatusPending,
			models.ExecutionStatusRunning,
		}).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *ExecutionRepository) FindRecent(ctx context.Context, projectID *uuid.UUID, limit int) ([]models.TestExecution, error) {
	var executions []models.TestExecution
	query := r.DB().WithContext(ctx)
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepository) FindAllByProject(ctx context.Context, projectID *uuid.UUID) ([]models.TestExecution, error) {
	var executions []models.TestExecution
	query := r.DB().WithContext(ctx)
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	err := query.Find(&executions).Error
	return executions, err
}

// FindStaleRunning returns running executions that started before the cutoff.
func (r *ExecutionRepository) FindStaleRunning(ctx context.Context, cutoff time.Time) ([]models.TestExecution, error) {
	var executions []models.TestExecution
	err := r.DB().WithContext(ctx).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", models.ExecutionStatusRunning, cutoff).
		Find(&executions).Error
	return executions, err
}

type StepResultRepository struct {
	*BaseRepository[models.TestStepResult]
}

func NewStepResultRepository(db *gorm.DB) *StepResultRepository {
	return &StepResultRepository{
		BaseRepository: NewBaseRepository[models.TestStepResult](db),
	}
}

func (r *StepResultRepository) FindByExecution(ctx context.Context, executionID uuid.UUID) ([]models.TestStepResult, error) {
	var results []models.TestStepResult
	err := r.DB().WithContext(ctx).
		Where("execution_id = ?", executionID).
		Order("created_at ASC").
		Find(&results).Error
	return results, err
}

func (r *StepResultRepository) CreateBatch(ctx context.Context, results []models.TestStepResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.DB().WithContext(ctx).Create(&results).Error
}
