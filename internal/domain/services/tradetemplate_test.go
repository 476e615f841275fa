package services

import (
	"context"
	"testing"

	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTradeTemplateService(t *testing.T, db *gorm.DB) *TradeTemplateService {
	t.Helper()
	return NewTradeTemplateService(
		repositories.NewTradeTemplateRepository(db),
		repositories.NewProjectRepository(db),
	)
}

func TestTradeTemplateCreate(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "FX Forward",
		NodeType:  models.TemplateNodeTemplate,
		Content:   strPtr("<trade id=\"{{ trade_id }}\"/>"),
	})
	assert.NoError(t, err)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, "v1.0", tpl.Version)
}

func TestTradeTemplateCreateUnderTemplateNode(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	leaf, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Leaf",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		ParentID:  &leaf.ID,
		Name:      "Nested",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestTradeTemplateActiveSiblingConflict(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Swap",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Swap",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.ErrorIs(t, err, ErrNameConflict)

	// the name is free again once the original is deleted
	assert.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Swap",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.NoError(t, err)
}

func TestTradeTemplateDeleteDeactivatesSubtree(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Rates",
		NodeType:  models.TemplateNodeFolder,
	})
	assert.NoError(t, err)
	mid, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		ParentID:  &root.ID,
		Name:      "Swaps",
		NodeType:  models.TemplateNodeFolder,
	})
	assert.NoError(t, err)
	leaf, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		ParentID:  &mid.ID,
		Name:      "IRS",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, root.ID))

	_, err = svc.Get(ctx, root.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, mid.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, leaf.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTradeTemplateRenderNode(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID:         project.ID,
		Name:              "Confirmation",
		NodeType:          models.TemplateNodeTemplate,
		Content:           strPtr("{{ counterparty }} / {{ notional }}"),
		TemplateVariables: models.JSON{"counterparty": "ACME", "notional": "1000000"},
	})
	assert.NoError(t, err)

	// node defaults apply when the caller sends nothing
	out, err := svc.RenderNode(ctx, tpl.ID, nil)
	assert.NoError(t, err)
	assert.Equal(t, "ACME / 1000000", out)

	// caller variables win over node defaults
	out, err = svc.RenderNode(ctx, tpl.ID, map[string]interface{}{"notional": "5000000"})
	assert.NoError(t, err)
	assert.Equal(t, "ACME / 5000000", out)
}

func TestTradeTemplateRenderFolderRefused(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	folder, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Folder",
		NodeType:  models.TemplateNodeFolder,
	})
	assert.NoError(t, err)

	_, err = svc.RenderNode(ctx, folder.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidNodeKind)
}

func TestTradeTemplateValidate(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "Broken",
		NodeType:  models.TemplateNodeTemplate,
		Content:   strPtr("{% if unclosed"),
	})
	assert.NoError(t, err)

	result, err := svc.Validate(ctx, tpl.ID)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestTradeTemplateFullPath(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Templates")
	svc := newTradeTemplateService(t, db)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		Name:      "FpML",
		NodeType:  models.TemplateNodeFolder,
	})
	assert.NoError(t, err)
	leaf, err := svc.Create(ctx, CreateTradeTemplateInput{
		ProjectID: project.ID,
		ParentID:  &root.ID,
		Name:      "NDF",
		NodeType:  models.TemplateNodeTemplate,
	})
	assert.NoError(t, err)

	path, err := svc.FullPath(ctx, leaf.ID)
	assert.NoError(t, err)
	assert.Equal(t, "FpML/NDF", path)
}
