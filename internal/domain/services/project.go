package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"gorm.io/gorm"
)

type ProjectService struct {
	projectRepo *repositories.ProjectRepository
}

func NewProjectService(projectRepo *repositories.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

type CreateProjectInput struct {
	Name        string
	Description *string
	Status      string
}

func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	if _, err := s.projectRepo.FindByName(ctx, input.Name, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusActive
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      status,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, status string, opts *repositories.ListOptions) ([]models.Project, int64, error) {
	if status != "" {
		return s.projectRepo.FindByStatus(ctx, status, opts)
	}
	return s.projectRepo.FindAll(ctx, opts)
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != project.Name {
		if _, err := s.projectRepo.FindByName(ctx, *input.Name, &id); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = input.Description
	}
	if input.Status != nil {
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and everything it owns.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.projectRepo.DeleteCascade(ctx, id)
}
