package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"gorm.io/gorm"
)

type TestCaseRepository struct {
	*BaseRepository[models.TestCase]
}

func NewTestCaseRepository(db *gorm.DB) *TestCaseRepository {
	return &TestCaseRepository{
		BaseRepository: NewBaseRepository[models.TestCase](db),
	}
}

// FindChildren lists direct children of parentID (root level when nil) within
// a project, in tree display order.
func (r *TestCaseRepository) FindChildren(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]models.TestCase, error) {
	var cases []models.TestCase
	query := r.DB().WithContext(ctx).Where("project_id = ?", projectID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	err := query.Order("sort_order ASC, created_at ASC").Find(&cases).Error
	return cases, err
}

func (r *TestCaseRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&models.TestCase{}).
		Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

// FindSibling returns a case with the same name under the same parent in the
// same project, excluding excludeID when non-nil.
func (r *TestCaseRepository) FindSibling(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (*models.TestCase, error) {
	var tc models.TestCase
	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND name = ?", projectID, name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.First(&tc).Error
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

func (r *TestCaseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.TestCase, error) {
	var cases []models.TestCase
	err := r.DB().WithContext(ctx).Where("id IN ?", ids).Find(&cases).Error
	return cases, err
}

// FindLeavesByTags returns non-folder cases in the project whose tag string
// contains any of the fragments (OR substring match).
func (r *TestCaseRepository) FindLeavesByTags(ctx context.Context, projectID uuid.UUID, fragments []string) ([]models.TestCase, error) {
	query := r.DB().WithContext(ctx).
		Where("project_id = ? AND is_folder = ?", projectID, false)

	var tagQuery *gorm.DB
	for _, f := range fragments {
		if f == "" {
			continue
		}
		cond := r.DB().Where("tags LIKE ?", "%"+f+"%")
		if tagQuery == nil {
			tagQuery = cond
		} else {
			tagQuery = tagQuery.Or(cond)
		}
	}
	if tagQuery == nil {
		return nil, nil
	}

	var cases []models.TestCase
	err := query.Where(tagQuery).Find(&cases).Error
	return cases, err
}

func (r *TestCaseRepository) FindByProject(ctx context.Context, projectID uuid.UUID, isFolder *bool, opts *ListOptions) ([]models.TestCase, int64, error) {
	var cases []models.TestCase
	var total int64

	query := r.DB().WithContext(ctx).Where("project_id = ?", projectID)
	if isFolder != nil {
		query = query.Where("is_folder = ?", *isFolder)
	}
	query.Model(&models.TestCase{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderClause("sort_order ASC, created_at ASC"))
	}

	err := query.Find(&cases).Error
	return cases, total, err
}

type TestCaseFileRepository struct {
	*BaseRepository[models.TestCaseFile]
}

func NewTestCaseFileRepository(db *gorm.DB) *TestCaseFileRepository {
	return &TestCaseFileRepository{
		BaseRepository: NewBaseRepository[models.TestCaseFile](db),
	}
}

// FindActiveByCase lists active files on a case, optionally filtered by type.
func (r *TestCaseFileRepository) FindActiveByCase(ctx context.Context, caseID uuid.UUID, fileType string) ([]models.TestCaseFile, error) {
	var files []models.TestCaseFile
	query := r.DB().WithContext(ctx).
		Where("test_case_id = ? AND is_active = ?", caseID, true)
	if fileType != "" {
		query = query.Where("file_type = ?", fileType)
	}
	err := query.Order("created_at ASC").Find(&files).Error
	return files, err
}

func (r *TestCaseFileRepository) FindActiveSibling(ctx context.Context, caseID uuid.UUID, name, fileType string, excludeID *uuid.UUID) (*models.TestCaseFile, error) {
	var file models.TestCaseFile
	query := r.DB().WithContext(ctx).
		Where("test_case_id = ? AND name = ? AND file_type = ? AND is_active = ?", caseID, name, fileType, true)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Deactivate soft-deletes a file.
func (r *TestCaseFileRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.DB().WithContext(ctx).Model(&models.TestCaseFile{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
