package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	*BaseRepository[models.Project]
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{
		BaseRepository: NewBaseRepository[models.Project](db),
	}
}

// FindByName looks up a project with the given name, excluding excludeID when
// it is non-nil (used for rename conflict checks).
func (r *ProjectRepository) FindByName(ctx context.Context, name string, excludeID *uuid.UUID) (*models.Project, error) {
	var project models.Project
	query := r.DB().WithContext(ctx).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) FindByStatus(ctx context.Context, status string, opts *ListOptions) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	query := r.DB().WithContext(ctx).Where("status = ?", status)
	query.Model(&models.Project{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("created_at DESC"))
	}

	err := query.Find(&projects).Error
	return projects, total, err
}

// DeleteCascade removes a project and everything it owns in one transaction.
func (r *ProjectRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("execution_id IN (?)",
			tx.Model(&models.TestExecution{}).Select("id").Where("project_id = ?", id),
		).Delete(&models.TestStepResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TestExecution{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_case_id IN (?)",
			tx.Model(&models.TestCase{}).Select("id").Where("project_id = ?", id),
		).Delete(&models.TestCaseFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TestCase{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TestStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TestDataNode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TradeTemplate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}
