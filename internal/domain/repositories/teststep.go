package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type TestStepRepository struct {
	*BaseRepository[models.TestStep]
}

func NewTestStepRepository(db *gorm.DB) *TestStepRepository {
	return &TestStepRepository{
		BaseRepository: NewBaseRepository[models.TestStep](db),
	}
}

func (r *TestStepRepository) FindByProject(ctx context.Context, projectID uuid.UUID, stepType string, opts *ListOptions) ([]models.TestStep, int64, error) {
	var steps []models.TestStep
	var total int64

	query := r.DB().WithContext(ctx).Where("project_id = ?", projectID)
	if stepType != "" {
		query = query.Where("type = ?", stepType)
	}
	query.Model(&models.TestStep{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("name ASC"))
	}

	err := query.Find(&steps).Error
	return steps, total, err
}

// FindSibling returns a step in the same project with the given name,
// excluding excludeID when non-nil.
func (r *TestStepRepository) FindSibling(ctx context.Context, projectID uuid.UUID, name string, excludeID *uuid.UUID) (*models.TestStep, error) {
	var step models.TestStep
	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND name = ?", projectID, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *TestStepRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.DB().WithContext(ctx).Model(&models.TestStep{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
