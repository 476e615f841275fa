package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTestCaseService(t *testing.T, db *gorm.DB) *TestCaseService {
	t.Helper()
	return NewTestCaseService(
		repositories.NewTestCaseRepository(db),
		repositories.NewTestCaseFileRepository(db),
		repositories.NewProjectRepository(db),
	)
}

func TestTestCaseCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	tc, err := svc.Create(ctx, CreateTestCaseInput{
		ProjectID: project.ID,
		Name:      "Book a spot trade",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, tc.Priority)
	assert.Equal(t, models.CaseStatusDraft, tc.Status)
	assert.False(t, tc.IsFolder)
}

func TestTestCaseCreateUnderNonFolder(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	leaf, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Leaf"})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateTestCaseInput{
		ProjectID: project.ID,
		ParentID:  &leaf.ID,
		Name:      "Child",
	})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestTestCaseSiblingNameConflict(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateTestCaseInput{
		ProjectID: project.ID,
		Name:      "Regression",
		IsFolder:  true,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &folder.ID, Name: "Login"})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &folder.ID, Name: "Login"})
	assert.ErrorIs(t, err, ErrNameConflict)

	// same name under a different parent is fine
	_, err = svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Login"})
	assert.NoError(t, err)
}

func TestTestCaseTree(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateTestCaseInput{
		ProjectID: project.ID,
		Name:      "Smoke",
		IsFolder:  true,
		SortOrder: 1,
	})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &folder.ID, Name: "Open home page"})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Standalone", SortOrder: 2})
	assert.NoError(t, err)

	tree, err := svc.GetTree(ctx, project.ID, nil)
	assert.NoError(t, err)
	assert.Len(t, tree, 2)
	assert.Equal(t, "Smoke", tree[0].Name)
	assert.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Open home page", tree[0].Children[0].Name)
	assert.Empty(t, tree[1].Children)
}

func TestTestCaseFullPath(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Suite", IsFolder: true})
	assert.NoError(t, err)
	mid, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &root.ID, Name: "Payments", IsFolder: true})
	assert.NoError(t, err)
	leaf, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &mid.ID, Name: "Refund"})
	assert.NoError(t, err)

	path, err := svc.FullPath(ctx, leaf.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Suite/Payments/Refund", path)
}

func TestTestCaseUpdateMove(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Target", IsFolder: true})
	assert.NoError(t, err)
	tc, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Floating"})
	assert.NoError(t, err)

	moved, err := svc.Update(ctx, tc.ID, UpdateTestCaseInput{ParentID: &folder.ID})
	assert.NoError(t, err)
	assert.Equal(t, folder.ID, *moved.ParentID)

	// self-parent is refused
	_, err = svc.Update(ctx, folder.ID, UpdateTestCaseInput{ParentID: &folder.ID})
	assert.ErrorIs(t, err, ErrInvalidParent)

	// back to root
	cleared, err := svc.Update(ctx, tc.ID, UpdateTestCaseInput{ClearParent: true})
	assert.NoError(t, err)
	assert.Nil(t, cleared.ParentID)
}

func TestTestCaseDeleteWithChildren(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "Folder", IsFolder: true})
	assert.NoError(t, err)
	child, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, ParentID: &folder.ID, Name: "Child"})
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, folder.ID), ErrHasChildren)

	assert.NoError(t, svc.Delete(ctx, child.ID))
	assert.NoError(t, svc.Delete(ctx, folder.ID))
}

func TestTestCaseFiles(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)
	ctx := context.Background()

	tc, err := svc.Create(ctx, CreateTestCaseInput{ProjectID: project.ID, Name: "With files"})
	assert.NoError(t, err)

	file, err := svc.CreateFile(ctx, CreateTestCaseFileInput{
		TestCaseID: tc.ID,
		Name:       "booking",
		FileType:   models.FileTypeFeature,
		Content:    "Feature: booking",
	})
	assert.NoError(t, err)
	assert.Equal(t, "booking.feature", file.FullName())

	files, err := svc.ListFiles(ctx, tc.ID, models.FileTypeFeature)
	assert.NoError(t, err)
	assert.Len(t, files, 1)

	updated, err := svc.UpdateFile(ctx, file.ID, UpdateTestCaseFileInput{
		Content: strPtr("Feature: booking v2"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Feature: booking v2", updated.Content)

	assert.NoError(t, svc.DeleteFile(ctx, file.ID))

	files, err = svc.ListFiles(ctx, tc.ID, "")
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestTestCaseCreateFileForMissingCase(t *testing.T) {
	db := newTestDB(t)
	seedProject(t, db, "Cases")
	svc := newTestCaseService(t, db)

	_, err := svc.CreateFile(context.Background(), CreateTestCaseFileInput{
		TestCaseID: uuid.New(),
		Name:       "orphan",
		FileType:   models.FileTypeFeature,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
