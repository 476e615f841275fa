package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type TestDataRepository struct {
	*BaseRepository[models.TestDataNode]
}

func NewTestDataRepository(db *gorm.DB) *TestDataRepository {
	return &TestDataRepository{
		BaseRepository: NewBaseRepository[models.TestDataNode](db),
	}
}

func (r *TestDataRepository) FindChildren(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]models.TestDataNode, error) {
	var nodes []models.TestDataNode
	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	err := query.Order("sort_order ASC, created_at ASC").Find(&nodes).Error
	return nodes, err
}

func (r *TestDataRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&models.TestDataNode{}).
		Where("parent_id = ? AND is_active = ?", id, true).Count(&count).Error
	return count, err
}

func (r *TestDataRepository) FindSibling(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (*models.TestDataNode, error) {
	var node models.TestDataNode
	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND name = ? AND is_active = ?", projectID, name, true)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}
