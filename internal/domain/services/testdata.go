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

type TestDataService struct {
	dataRepo    *repositories.TestDataRepository
	projectRepo *repositories.ProjectRepository
}

func NewTestDataService(dataRepo *repositories.TestDataRepository, projectRepo *repositories.ProjectRepository) *TestDataService {
	return &TestDataService{dataRepo: dataRepo, projectRepo: projectRepo}
}

type CreateDataNodeInput struct {
	ProjectID         uuid.UUID
	ParentID          *uuid.UUID
	Name              string
	Description       *string
	NodeType          string
	SortOrder         int
	DataContent       models.JSON
	Template          *string
	TemplateVariables models.JSON
	Version           string
}

func (s *TestDataService) Create(ctx context.Context, input CreateDataNodeInput) (*models.TestDataNode, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.getActive(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.NodeType != models.DataNodeFolder {
			return nil, ErrInvalidParent
		}
	}

	if _, err := s.dataRepo.FindSibling(ctx, input.ProjectID, input.ParentID, input.Name, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	version := input.Version
	if version == "" {
		version = "v1.0"
	}

	node := &models.TestDataNode{
		ProjectID:         input.ProjectID,
		ParentID:          input.ParentID,
		Name:              input.Name,
		Description:       input.Description,
		NodeType:          input.NodeType,
		SortOrder:         input.SortOrder,
		DataContent:       input.DataContent,
		Template:          input.Template,
		TemplateVariables: input.TemplateVariables,
		IsActive:          true,
		Version:           version,
	}
	if err := s.dataRepo.Create(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *TestDataService) Get(ctx context.Context, id uuid.UUID) (*models.TestDataNode, error) {
	return s.getActive(ctx, id)
}

// DataNode is a tree node with recursive children.
type DataNode struct {
	models.TestDataNode
	Children []DataNode `json:"children"`
}

func (s *TestDataService) GetTree(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]DataNode, error) {
	children, err := s.dataRepo.FindChildren(ctx, projectID, parentID)
	if err != nil {
		return nil, err
	}

	nodes := make([]DataNode, 0, len(children))
	for _, child := range children {
		node := DataNode{TestDataNode: child, Children: []DataNode{}}
		if child.NodeType == models.DataNodeFolder {
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
func (s *TestDataService) FullPath(ctx context.Context, id uuid.UUID) (string, error) {
	node, err := s.getActive(ctx, id)
	if err != nil {
		return "", err
	}

	path := node.Name
	for node.ParentID != nil {
		node, err = s.getActive(ctx, *node.ParentID)
		if err != nil {
			return "", err
		}
		path = node.Name + "/" + path
	}
	return path, nil
}

type UpdateDataNodeInput struct {
	ParentID          *uuid.UUID
	ClearParent       bool
	Name              *string
	Description       *string
	SortOrder         *int
	DataContent       models.JSON
	Template          *string
	TemplateVariables models.JSON
	Version           *string
}

func (s *TestDataService) Update(ctx context.Context, id uuid.UUID, input UpdateDataNodeInput) (*models.TestDataNode, error) {
	node, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	parentID := node.ParentID
	if input.ClearParent {
		parentID = nil
	} else if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, ErrInvalidParent
		}
		parent, err := s.getActive(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.NodeType != models.DataNodeFolder {
			return nil, ErrInvalidParent
		}
		parentID = input.ParentID
	}

	name := node.Name
	if input.Name != nil {
		name = *input.Name
	}

	if name != node.Name || !uuidPtrEqual(parentID, node.ParentID) {
		if _, err := s.dataRepo.FindSibling(ctx, node.ProjectID, parentID, name, &id); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	node.Name = name
	node.ParentID = parentID
	if input.Description != nil {
		node.Description = input.Description
	}
	if input.SortOrder != nil {
		node.SortOrder = *input.SortOrder
	}
	if input.DataContent != nil {
		node.DataContent = input.DataContent
	}
	if input.Template != nil {
		node.Template = input.Template
	}
	if input.TemplateVariables != nil {
		node.TemplateVariables = input.TemplateVariables
	}
	if input.Version != nil {
		node.Version = *input.Version
	}

	if err := s.dataRepo.Update(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Delete hard-deletes a node. Nodes with active children are refused.
func (s *TestDataService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getActive(ctx, id); err != nil {
		return err
	}

	count, err := s.dataRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasChildren
	}
	return s.dataRepo.Delete(ctx, id)
}

// Render evaluates a template node's body against its default variables
// overlaid with caller variables (caller wins).
func (s *TestDataService) Render(ctx context.Context, id uuid.UUID, vars map[string]interface{}) (string, error) {
	node, err := s.getActive(ctx, id)
	if err != nil {
		return "", err
	}
	if node.NodeType != models.DataNodeTemplate || node.Template == nil || *node.Template == "" {
		return "", ErrInvalidNodeKind
	}

	merged := template.MergeVars(node.TemplateVariables, vars)
	return template.Render(*node.Template, merged)
}

func (s *TestDataService) getActive(ctx context.Context, id uuid.UUID) (*models.TestDataNode, error) {
	node, err := s.dataRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !node.IsActive {
		return nil, ErrNotFound
	}
	return node, nil
}
