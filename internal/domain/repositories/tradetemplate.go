package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type TradeTemplateRepository struct {
	*BaseRepository[models.TradeTemplate]
}

func NewTradeTemplateRepository(db *gorm.DB) *TradeTemplateRepository {
	return &TradeTemplateRepository{
		BaseRepository: NewBaseRepository[models.TradeTemplate](db),
	}
}

// FindActiveByID ignores soft-deleted rows.
func (r *TradeTemplateRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.TradeTemplate, error) {
	var tpl models.TradeTemplate
	err := r.DB().WithContext(ctx).
		First(&tpl, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TradeTemplateRepository) FindActiveByProject(ctx context.Context, projectID uuid.UUID, nodeType string, opts *ListOptions) ([]models.TradeTemplate, int64, error) {
	var templates []models.TradeTemplate
	var total int64

	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true)
	if nodeType != "" {
		query = query.Where("node_type = ?", nodeType)
	}
	query.Model(&models.TradeTemplate{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("sort_order ASC, created_at ASC"))
	}

	err := query.Find(&templates).Error
	return templates, total, err
}

func (r *TradeTemplateRepository) FindChildren(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]models.TradeTemplate, error) {
	var nodes []models.TradeTemplate
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

// FindSibling checks name uniqueness among active nodes under the same parent.
func (r *TradeTemplateRepository) FindSibling(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (*models.TradeTemplate, error) {
	var tpl models.TradeTemplate
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
	err := query.First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Deactivate soft-deletes a single node.
func (r *TradeTemplateRepository) Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := r.DB()
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&models.TradeTemplate{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// FindActiveChildIDs returns ids of active direct children, used by the
// recursive soft delete.
func (r *TradeTemplateRepository) FindActiveChildIDs(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]uuid.UUID, error) {
	db := r.DB()
	if tx != nil {
		db = tx
	}
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&models.TradeTemplate{}).
		Where("parent_id = ? AND is_active = ?", id, true).
		Pluck("id", &ids).Error
	return ids, err
}
