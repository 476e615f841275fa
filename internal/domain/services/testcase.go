package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"gorm.io/gorm"
)

type TestCaseService struct {
	caseRepo    *repositories.TestCaseRepository
	fileRepo    *repositories.TestCaseFileRepository
	projectRepo *repositories.ProjectRepository
}

func NewTestCaseService(
	caseRepo *repositories.TestCaseRepository,
	fileRepo *repositories.TestCaseFileRepository,
	projectRepo *repositories.ProjectRepository,
) *TestCaseService {
	return &TestCaseService{
		caseRepo:    caseRepo,
		fileRepo:    fileRepo,
		projectRepo: projectRepo,
	}
}

type CreateTestCaseInput struct {
	ProjectID      uuid.UUID
	ParentID       *uuid.UUID
	Name           string
	Description    *string
	Priority       string
	Status         string
	Tags           string
	GherkinContent *string
	IsAutomated    bool
	IsFolder       bool
	SortOrder      int
}

func (s *TestCaseService) Create(ctx context.Context, input CreateTestCaseInput) (*models.TestCase, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.caseRepo.FindByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if !parent.IsFolder {
			return nil, ErrInvalidParent
		}
	}

	if _, err := s.caseRepo.FindSibling(ctx, input.ProjectID, input.ParentID, input.Name, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	status := input.Status
	if status == "" {
		status = models.CaseStatusDraft
	}

	tc := &models.TestCase{
		ProjectID:      input.ProjectID,
		ParentID:       input.ParentID,
		Name:           input.Name,
		Description:    input.Description,
		Priority:       priority,
		Status:         status,
		Tags:           input.Tags,
		GherkinContent: input.GherkinContent,
		IsAutomated:    input.IsAutomated,
		IsFolder:       input.IsFolder,
		SortOrder:      input.SortOrder,
	}
	if err := s.caseRepo.Create(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

func (s *TestCaseService) Get(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	tc, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tc, nil
}

func (s *TestCaseService) List(ctx context.Context, projectID uuid.UUID, isFolder *bool, opts *repositories.ListOptions) ([]models.TestCase, int64, error) {
	return s.caseRepo.FindByProject(ctx, projectID, isFolder, opts)
}

// TestCaseNode is a test case with its recursive children and active files,
// as returned by the tree endpoint.
type TestCaseNode struct {
	models.TestCase
	Files    []models.TestCaseFile `json:"files,omitempty"`
	Children []TestCaseNode        `json:"children"`
}

// GetTree builds the subtree rooted at parentID (whole project when nil).
// Sorting is sort_order then created_at at every level.
func (s *TestCaseService) GetTree(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]TestCaseNode, error) {
	children, err := s.caseRepo.FindChildren(ctx, projectID, parentID)
	if err != nil {
		return nil, err
	}

	nodes := make([]TestCaseNode, 0, len(children))
	for _, child := range children {
		node := TestCaseNode{TestCase: child}
		if child.IsFolder {
			sub, err := s.GetTree(ctx, projectID, &child.ID)
			if err != nil {
				return nil, err
			}
			node.Children = sub
		} else {
			files, err := s.fileRepo.FindActiveByCase(ctx, child.ID, "")
			if err != nil {
				return nil, err
			}
			node.Files = files
			node.Children = []TestCaseNode{}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FullPath walks the parent chain and joins names root-first with "/".
func (s *TestCaseService) FullPath(ctx context.Context, id uuid.UUID) (string, error) {
	tc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	path := tc.Name
	for tc.ParentID != nil {
		tc, err = s.Get(ctx, *tc.ParentID)
		if err != nil {
			return "", err
		}
		path = tc.Name + "/" + path
	}
	return path, nil
}

type UpdateTestCaseInput struct {
	ParentID       *uuid.UUID
	ClearParent    bool
	Name           *string
	Description    *string
	Priority       *string
	Status         *string
	Tags           *string
	GherkinContent *string
	IsAutomated    *bool
	SortOrder      *int
}

func (s *TestCaseService) Update(ctx context.Context, id uuid.UUID, input UpdateTestCaseInput) (*models.TestCase, error) {
	tc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	parentID := tc.ParentID
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
		if !parent.IsFolder {
			return nil, ErrInvalidParent
		}
		parentID = input.ParentID
	}

	name := tc.Name
	if input.Name != nil {
		name = *input.Name
	}

	if name != tc.Name || !uuidPtrEqual(parentID, tc.ParentID) {
		if _, err := s.caseRepo.FindSibling(ctx, tc.ProjectID, parentID, name, &id); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	tc.Name = name
	tc.ParentID = parentID
	if input.Description != nil {
		tc.Description = input.Description
	}
	if input.Priority != nil {
		tc.Priority = *input.Priority
	}
	if input.Status != nil {
		tc.Status = *input.Status
	}
	if input.Tags != nil {
		tc.Tags = *input.Tags
	}
	if input.GherkinContent != nil {
		tc.GherkinContent = input.GherkinContent
	}
	if input.IsAutomated != nil {
		tc.IsAutomated = *input.IsAutomated
	}
	if input.SortOrder != nil {
		tc.SortOrder = *input.SortOrder
	}

	if err := s.caseRepo.Update(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// Delete hard-deletes a case. Nodes with children are refused.
func (s *TestCaseService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.caseRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasChildren
	}
	return s.caseRepo.Delete(ctx, id)
}

// Files

type CreateTestCaseFileInput struct {
	TestCaseID uuid.UUID
	Name       string
	FileType   string
	Content    string
	Version    string
}

func (s *TestCaseService) CreateFile(ctx context.Context, input CreateTestCaseFileInput) (*models.TestCaseFile, error) {
	tc, err := s.Get(ctx, input.TestCaseID)
	if err != nil {
		return nil, err
	}
	if tc.IsFolder {
		return nil, ErrInvalidNodeKind
	}

	if _, err := s.fileRepo.FindActiveSibling(ctx, input.TestCaseID, input.Name, input.FileType, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	version := input.Version
	if version == "" {
		version = "v1.0"
	}

	file := &models.TestCaseFile{
		TestCaseID: input.TestCaseID,
		Name:       input.Name,
		FileType:   input.FileType,
		Content:    input.Content,
		IsActive:   true,
		Version:    version,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *TestCaseService) ListFiles(ctx context.Context, caseID uuid.UUID, fileType string) ([]models.TestCaseFile, error) {
	if _, err := s.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.fileRepo.FindActiveByCase(ctx, caseID, fileType)
}

type UpdateTestCaseFileInput struct {
	Name    *string
	Content *string
	Version *string
}

func (s *TestCaseService) UpdateFile(ctx context.Context, fileID uuid.UUID, input UpdateTestCaseFileInput) (*models.TestCaseFile, error) {
	file, err := s.getActiveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != file.Name {
		if _, err := s.fileRepo.FindActiveSibling(ctx, file.TestCaseID, *input.Name, file.FileType, &fileID); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		file.Name = *input.Name
	}
	if input.Content != nil {
		file.Content = *input.Content
	}
	if input.Version != nil {
		file.Version = *input.Version
	}

	if err := s.fileRepo.Update(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile soft-deletes a file; the row stays for history.
func (s *TestCaseService) DeleteFile(ctx context.Context, fileID uuid.UUID) error {
	if _, err := s.getActiveFile(ctx, fileID); err != nil {
		return err
	}
	return s.fileRepo.Deactivate(ctx, fileID)
}

func (s *TestCaseService) getActiveFile(ctx context.Context, fileID uuid.UUID) (*models.TestCaseFile, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !file.IsActive {
		return nil, ErrNotFound
	}
	return file, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
