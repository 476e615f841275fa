package services

import (
	"context"
	"testing"

	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTestDataService(t *testing.T, db *gorm.DB) *TestDataService {
	t.Helper()
	return NewTestDataService(
		repositories.NewTestDataRepository(db),
		repositories.NewProjectRepository(db),
	)
}

func TestDataNodeCreateAndTree(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		Name:      "Counterparties",
		NodeType:  models.DataNodeFolder,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateDataNodeInput{
		ProjectID:   project.ID,
		ParentID:    &folder.ID,
		Name:        "ACME",
		NodeType:    models.DataNodeData,
		DataContent: models.JSON{"lei": "5493001KJTIIGC8Y1R12"},
	})
	assert.NoError(t, err)

	tree, err := svc.GetTree(ctx, project.ID, nil)
	assert.NoError(t, err)
	assert.Len(t, tree, 1)
	assert.Equal(t, "Counterparties", tree[0].Name)
	assert.Len(t, tree[0].Children, 1)
	assert.Equal(t, "ACME", tree[0].Children[0].Name)
}

func TestDataNodeCreateUnderNonFolder(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	data, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		Name:      "Plain",
		NodeType:  models.DataNodeData,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		ParentID:  &data.ID,
		Name:      "Nested",
		NodeType:  models.DataNodeData,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestDataNodeDeleteWithChildren(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		Name:      "Folder",
		NodeType:  models.DataNodeFolder,
	})
	assert.NoError(t, err)
	child, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		ParentID:  &folder.ID,
		Name:      "Child",
		NodeType:  models.DataNodeData,
	})
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, folder.ID), ErrHasChildren)
	assert.NoError(t, svc.Delete(ctx, child.ID))
	assert.NoError(t, svc.Delete(ctx, folder.ID))
}

func TestDataNodeRender(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	node, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID:         project.ID,
		Name:              "Trade blob",
		NodeType:          models.DataNodeTemplate,
		Template:          strPtr("{\"currency\": \"{{ currency }}\", \"amount\": {{ amount }}}"),
		TemplateVariables: models.JSON{"currency": "USD", "amount": 100},
	})
	assert.NoError(t, err)

	out, err := svc.Render(ctx, node.ID, map[string]interface{}{"amount": 250})
	assert.NoError(t, err)
	assert.Equal(t, "{\"currency\": \"USD\", \"amount\": 250}", out)
}

func TestDataNodeRenderNonTemplate(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	node, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID:   project.ID,
		Name:        "Raw data",
		NodeType:    models.DataNodeData,
		DataContent: models.JSON{"k": "v"},
	})
	assert.NoError(t, err)

	_, err = svc.Render(ctx, node.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidNodeKind)
}

func TestDataNodeUpdateRename(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Data")
	svc := newTestDataService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		Name:      "Taken",
		NodeType:  models.DataNodeData,
	})
	assert.NoError(t, err)
	node, err := svc.Create(ctx, CreateDataNodeInput{
		ProjectID: project.ID,
		Name:      "Original",
		NodeType:  models.DataNodeData,
	})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, node.ID, UpdateDataNodeInput{Name: strPtr("Taken")})
	assert.ErrorIs(t, err, ErrNameConflict)

	updated, err := svc.Update(ctx, node.ID, UpdateDataNodeInput{
		Name:        strPtr("Renamed"),
		DataContent: models.JSON{"fresh": true},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, true, updated.DataContent["fresh"])
}
