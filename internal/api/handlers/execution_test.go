package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/api/dto"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newExecutionHandlerFixture(t *testing.T) (*gorm.DB, *services.ExecutionService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Project{},
		&models.TestCase{},
		&models.TestCaseFile{},
		&models.TestExecution{},
		&models.TestStepResult{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	svc := services.NewExecutionService(
		repositories.NewExecutionRepository(db),
		repositories.NewStepResultRepository(db),
		repositories.NewTestCaseRepository(db),
		repositories.NewProjectRepository(db),
	)
	return db, svc
}

func seedRunningExecution(t *testing.T, db *gorm.DB) *models.TestExecution {
	t.Helper()
	project := &models.Project{Name: "Checkout", Status: "active"}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	execution := &models.TestExecution{
		ProjectID:  project.ID,
		Name:       "Nightly regression",
		Status:     models.ExecutionStatusRunning,
		TotalCases: 4,
	}
	if err := db.Create(execution).Error; err != nil {
		t.Fatalf("seed execution: %v", err)
	}
	return execution
}

type progressRecorder struct {
	projectIDs   []uuid.UUID
	executionIDs []uuid.UUID
}

func (r *progressRecorder) ExecutionProgress(ctx context.Context, projectID, executionID uuid.UUID, progress, passRate float64) error {
	r.projectIDs = append(r.projectIDs, projectID)
	r.executionIDs = append(r.executionIDs, executionID)
	return nil
}

func executionRouter(handler *ExecutionHandler) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/test-executions/{executionID}", func(r chi.Router) {
		r.Get("/report", handler.Report)
		r.Post("/step-results", handler.AddStepResult)
	})
	return router
}

func TestAddStepResultPublishesProgress(t *testing.T) {
	db, svc := newExecutionHandlerFixture(t)
	execution := seedRunningExecution(t, db)

	recorder := &progressRecorder{}
	router := executionRouter(NewExecutionHandler(svc, nil, recorder))

	body := `{"step_name":"Given a logged in trader","keyword":"Given","result":"pass","execution_time":0.42}`
	req := httptest.NewRequest(http.MethodPost,
		"/test-executions/"+execution.ID.String()+"/step-results", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, recorder.executionIDs, 1)
	assert.Equal(t, execution.ID, recorder.executionIDs[0])
	assert.Equal(t, execution.ProjectID, recorder.projectIDs[0])
}

func TestAddStepResultUnknownExecutionSkipsPublish(t *testing.T) {
	_, svc := newExecutionHandlerFixture(t)

	recorder := &progressRecorder{}
	router := executionRouter(NewExecutionHandler(svc, nil, recorder))

	body := `{"step_name":"When the order is placed","result":"fail"}`
	req := httptest.NewRequest(http.MethodPost,
		"/test-executions/"+uuid.NewString()+"/step-results", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, recorder.executionIDs)
}

func TestExecutionReport(t *testing.T) {
	db, svc := newExecutionHandlerFixture(t)
	execution := seedRunningExecution(t, db)

	ctx := context.Background()
	for _, step := range []string{"Given a booked trade", "Then the confirmation matches"} {
		_, err := svc.AddStepResult(ctx, execution.ID, services.AddStepResultInput{
			StepName: step,
			Result:   "pass",
		})
		assert.NoError(t, err)
	}

	router := executionRouter(NewExecutionHandler(svc, nil, nil))
	req := httptest.NewRequest(http.MethodGet,
		"/test-executions/"+execution.ID.String()+"/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Execution   models.TestExecution    `json:"execution"`
			StepResults []models.TestStepResult `json:"step_results"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, execution.ID, envelope.Data.Execution.ID)
	assert.Len(t, envelope.Data.StepResults, 2)
}

func TestExecutionReportNotFound(t *testing.T) {
	_, svc := newExecutionHandlerFixture(t)

	router := executionRouter(NewExecutionHandler(svc, nil, nil))
	req := httptest.NewRequest(http.MethodGet,
		"/test-executions/"+uuid.NewString()+"/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateExecutionRequestPriorityValues(t *testing.T) {
	valid := dto.CreateExecutionRequest{
		ProjectID: uuid.New(),
		Name:      "smoke",
		Priority:  dto.ExecutionPriorityHigh,
	}
	assert.NoError(t, validator.Validate(&valid))

	invalid := dto.CreateExecutionRequest{
		ProjectID: uuid.New(),
		Name:      "smoke",
		Priority:  "urgent",
	}
	assert.Error(t, validator.Validate(&invalid))
}
