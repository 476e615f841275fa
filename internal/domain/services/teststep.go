package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"gorm.io/gorm"
)

type TestStepService struct {
	stepRepo    *repositories.TestStepRepository
	projectRepo *repositories.ProjectRepository
}

func NewTestStepService(stepRepo *repositories.TestStepRepository, projectRepo *repositories.ProjectRepository) *TestStepService {
	return &TestStepService{stepRepo: stepRepo, projectRepo: projectRepo}
}

type CreateTestStepInput struct {
	ProjectID    uuid.UUID
	Name         string
	Description  *string
	Type         string
	Parameters   []string
	Decorator    *string
	UsageExample *string
	FunctionName *string
}

func (s *TestStepService) Create(ctx context.Context, input CreateTestStepInput) (*models.TestStep, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.stepRepo.FindSibling(ctx, input.ProjectID, input.Name, nil); err == nil {
		return nil, ErrNameConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	step := &models.TestStep{
		ProjectID:    input.ProjectID,
		Name:         input.Name,
		Description:  input.Description,
		Type:         input.Type,
		Parameters:   models.StringArray(input.Parameters),
		Decorator:    input.Decorator,
		UsageExample: input.UsageExample,
		FunctionName: input.FunctionName,
	}
	if err := s.stepRepo.Create(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *TestStepService) Get(ctx context.Context, id uuid.UUID) (*models.TestStep, error) {
	step, err := s.stepRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return step, nil
}

func (s *TestStepService) List(ctx context.Context, projectID uuid.UUID, stepType string, opts *repositories.ListOptions) ([]models.TestStep, int64, error) {
	return s.stepRepo.FindByProject(ctx, projectID, stepType, opts)
}

type UpdateTestStepInput struct {
	Name         *string
	Description  *string
	Type         *string
	Parameters   []string
	Decorator    *string
	UsageExample *string
	FunctionName *string
}

func (s *TestStepService) Update(ctx context.Context, id uuid.UUID, input UpdateTestStepInput) (*models.TestStep, error) {
	step, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != step.Name {
		if _, err := s.stepRepo.FindSibling(ctx, step.ProjectID, *input.Name, &id); err == nil {
			return nil, ErrNameConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		step.Name = *input.Name
	}
	if input.Description != nil {
		step.Description = input.Description
	}
	if input.Type != nil {
		step.Type = *input.Type
	}
	if input.Parameters != nil {
		step.Parameters = models.StringArray(input.Parameters)
	}
	if input.Decorator != nil {
		step.Decorator = input.Decorator
	}
	if input.UsageExample != nil {
		step.UsageExample = input.UsageExample
	}
	if input.FunctionName != nil {
		step.FunctionName = input.FunctionName
	}

	if err := s.stepRepo.Update(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *TestStepService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.stepRepo.Delete(ctx, id)
}

// RecordUsage bumps the usage counter when a step is referenced from a case.
func (s *TestStepService) RecordUsage(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.stepRepo.IncrementUsage(ctx, id)
}
