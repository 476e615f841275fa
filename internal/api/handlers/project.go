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

type ProjectHandler struct {
	projectSvc *services.ProjectService
}

func NewProjectHandler(projectSvc *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	status := r.URL.Query().Get("status")
	opts := repositories.NewListOptions(page, perPage).
		WithSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("order"))

	projects, total, err := h.projectSvc.List(r.Context(), status, opts)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.JSONWithMeta(w, http.StatusOK, projects, buildMeta(opts, total))
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	project, err := h.projectSvc.Create(r.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		dto.BadRequest(w, "invalid project ID")
		return
	}

	project, err := h.projectSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		dto.BadRequest(w, "invalid project ID")
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	project, err := h.projectSvc.Update(r.Context(), id, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		dto.BadRequest(w, "invalid project ID")
		return
	}

	if err := h.projectSvc.Delete(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}

func buildMeta(opts *repositories.ListOptions, total int64) *dto.Meta {
	totalPages := int(total) / opts.Limit
	if int(total)%opts.Limit > 0 {
		totalPages++
	}
	page := opts.Offset/opts.Limit + 1
	return &dto.Meta{
		Page:       page,
		PerPage:    opts.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
