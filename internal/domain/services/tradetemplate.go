package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/pkg/template"
	"gorm.io/gorm"
)

type TradeTemplateService struct {
	templateRepo *repositories.TradeTemplateRepository
	projectRepo  *repositories.ProjectRepository
}

func NewTradeTemplateService(templateRepo *repositories.TradeTemplateRepository, projectRepo *repositories.ProjectRepository) *TradeTemplateService {
	return &TradeTemplateService{templateRepo: templateRepo, projectRepo: projectRepo}
}

type CreateTradeTemplateInput struct {
	ProjectID         uuid.UUID
	ParentID          *uuid.UUID
	Name              string
	Description       *string
	NodeType          string
	SortOrder         int
	Content           *string
	TemplateVariables models.JSON
	Version           string
}

func (s *TradeTemplateService) Create(ctx context.Context, input CreateTradeTemplateInput) (*models.TradeTemplate, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.Get(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.NodeType != models.TemplateNodeFolder {
			return nil, ErrInvalidParent
		}
	}

	if _, err := s.templateRepo.FindSibling(ctx, input.ProjectID, input.ParentID, input.Name, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	version := input.Version
	if version == "" {
		version = "v1.0"
	}

	tpl := &models.TradeTemplate{
		ProjectID:         input.ProjectID,
		ParentID:          input.ParentID,
		Name:              input.Name,
		Description:       input.Description,
		NodeType:          input.NodeType,
		SortOrder:         input.SortOrder,
		Content:           input.Content,
		TemplateVariables: input.TemplateVariables,
		IsActive:          true,
		Version:           version,
	}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *TradeTemplateService) Get(ctx context.Context, id uuid.UUID) (*models.TradeTemplate, error) {
	tpl, err := s.templateRepo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *TradeTemplateService) List(ctx context.Context, projectID uuid.UUID, nodeType string, opts *repositories.ListOptions) ([]models.TradeTemplate, int64, error) {
	return s.templateRepo.FindActiveByProject(ctx, projectID, nodeType, opts)
}

// TemplateNode is a tree node with recursive children.
type TemplateNode struct {
	models.TradeTemplate
	Children []TemplateNode `json:"children"`
}

func (s *TradeTemplateService) GetTree(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]TemplateNode, error) {
	children, err := s.templateRepo.FindChildren(ctx, projectID, parentID)
	if err != nil {
		return nil, err
	}

	nodes := make([]TemplateNode, 0, len(children))
	for _, child := range children {
		node := TemplateNode{TradeTemplate: child, Children: []TemplateNode{}}
		if child.NodeType == models.TemplateNodeFolder {
			sub, err := s.GetTree(ctx, projectID, &child.ID)
			if err != nil {
				return nil, err
			}
			node.Children = sub
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FullPath walks the parent chain and joins names root-first with "/".
func (s *TradeTemplateService) FullPath(ctx context.Context, id uuid.UUID) (string, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	path := tpl.Name
	for tpl.ParentID != nil {
		tpl, err = s.Get(ctx, *tpl.ParentID)
		if err != nil {
			return "", err
		}
		path = tpl.Name + "/" + path
	}
	return path, nil
}

type UpdateTradeTemplateInput struct {
	ParentID          *uuid.UUID
	ClearParent       bool
	Name              *string
	Description       *string
	SortOrder         *int
	Content           *string
	TemplateVariables models.JSON
	Version           *string
}

func (s *TradeTemplateService) Update(ctx context.Context, id uuid.UUID, input UpdateTradeTemplateInput) (*models.TradeTemplate, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	parentID := tpl.ParentID
	if input.ClearParent {
		parentID = nil
	} else if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, ErrInvalidParent
		}
		parent, err := s.Get(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.NodeType != models.TemplateNodeFolder {
			return nil, ErrInvalidParent
		}
		parentID = input.ParentID
	}

	name := tpl.Name
	if input.Name != nil {
		name = *input.Name
	}

	if name != tpl.Name || !uuidPtrEqual(parentID, tpl.ParentID) {
		if _, err := s.templateRepo.FindSibling(ctx, tpl.ProjectID, parentID, name, &id); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	tpl.Name = name
	tpl.ParentID = parentID
	if input.Description != nil {
		tpl.Description = input.Description
	}
	if input.SortOrder != nil {
		tpl.SortOrder = *input.SortOrder
	}
	if input.Content != nil {
		tpl.Content = input.Content
	}
	if input.TemplateVariables != nil {
		tpl.TemplateVariables = input.TemplateVariables
	}
	if input.Version != nil {
		tpl.Version = *input.Version
	}

	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Delete soft-deletes the node and, recursively, every active descendant.
func (s *TradeTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	return s.templateRepo.Transaction(func(tx *gorm.DB) error {
		return s.deactivateSubtree(ctx, tx, id)
	})
}

func (s *TradeTemplateService) deactivateSubtree(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	childIDs, err := s.templateRepo.FindActiveChildIDs(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, childID := range childIDs {
		if err := s.deactivateSubtree(ctx, tx, childID); err != nil {
			return err
		}
	}
	return s.templateRepo.Deactivate(ctx, tx, id)
}

// RenderNode evaluates a template node's body with node defaults overlaid by
// caller variables (caller wins). Folder nodes and empty bodies are refused.
func (s *TradeTemplateService) RenderNode(ctx context.Context, id uuid.UUID, vars map[string]interface{}) (string, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if tpl.NodeType != models.TemplateNodeTemplate || tpl.Content == nil || *tpl.Content == "" {
		return "", ErrInvalidNodeKind
	}

	merged := template.MergeVars(tpl.TemplateVariables, vars)
	return template.Render(*tpl.Content, merged)
}

// RenderText evaluates ad-hoc template text without touching stored nodes.
func (s *TradeTemplateService) RenderText(ctx context.Context, text string, vars map[string]interface{}) (string, error) {
	return template.Render(text, vars)
}

// Validate checks a node's body without rendering it.
func (s *TradeTemplateService) Validate(ctx context.Context, id uuid.UUID) (*template.ValidationResult, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.NodeType != models.TemplateNodeTemplate || tpl.Content == nil {
		return nil, ErrInvalidNodeKind
	}

	result := template.Validate(*tpl.Content)
	return &result, nil
}
