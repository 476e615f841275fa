package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Project{},
		&models.TestStep{},
		&models.TestCase{},
		&models.TestCaseFile{},
		&models.TestDataNode{},
		&models.TradeTemplate{},
		&models.TestExecution{},
		&models.TestStepResult{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newProjectService(t *testing.T, db *gorm.DB) *ProjectService {
	t.Helper()
	return NewProjectService(repositories.NewProjectRepository(db))
}

func seedProject(t *testing.T, db *gorm.DB, name string) *models.Project {
	t.Helper()
	svc := newProjectService(t, db)
	project, err := svc.Create(context.Background(), CreateProjectInput{Name: name})
	if err != nil {
		t.Fatalf("seed project %q: %v", name, err)
	}
	return project
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
