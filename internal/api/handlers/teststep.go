package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/api/dto"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/validator"
)

type TestStepHandler struct {
	stepSvc *services.TestStepService
}

func NewTestStepHandler(stepSvc *services.TestStepService) *TestStepHandler {
	return &TestStepHandler{stepSvc: stepSvc}
}

func (h *TestStepHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	stepType := r.URL.Query().Get("type")
	opts := repositories.NewListOptions(page, perPage).
		WithSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("order"))

	steps, total, err := h.stepSvc.List(r.Context(), projectID, stepType, opts)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.JSONWithMeta(w, http.StatusOK, steps, buildMeta(opts, total))
}

func (h *TestStepHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTestStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	step, err := h.stepSvc.Create(r.Context(), services.CreateTestStepInput{
		ProjectID:    req.ProjectID,
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Parameters:   req.Parameters,
		Decorator:    req.Decorator,
		UsageExample: req.UsageExample,
		FunctionName: req.FunctionName,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, step)
}

func (h *TestStepHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "stepID"))
	if err != nil {
		dto.BadRequest(w, "invalid step ID")
		return
	}

	step, err := h.stepSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, step)
}

func (h *TestStepHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "stepID"))
	if err != nil {
		dto.BadRequest(w, "invalid step ID")
		return
	}

	var req dto.UpdateTestStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	step, err := h.stepSvc.Update(r.Context(), id, services.UpdateTestStepInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Parameters:   req.Parameters,
		Decorator:    req.Decorator,
		UsageExample: req.UsageExample,
		FunctionName: req.FunctionName,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, step)
}

func (h *TestStepHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "stepID"))
	if err != nil {
		dto.BadRequest(w, "invalid step ID")
		return
	}

	if err := h.stepSvc.Delete(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}

func (h *TestStepHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "stepID"))
	if err != nil {
		dto.BadRequest(w, "invalid step ID")
		return
	}

	if err := h.stepSvc.RecordUsage(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]string{"status": "recorded"})
}
