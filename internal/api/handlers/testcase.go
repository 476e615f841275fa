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

type TestCaseHandler struct {
	caseSvc *services.TestCaseService
}

func NewTestCaseHandler(caseSvc *services.TestCaseService) *TestCaseHandler {
	return &TestCaseHandler{caseSvc: caseSvc}
}

func (h *TestCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	opts := repositories.NewListOptions(page, perPage).
		WithSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("order"))

	var isFolder *bool
	if raw := r.URL.Query().Get("is_folder"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			dto.BadRequest(w, "invalid is_folder value")
			return
		}
		isFolder = &parsed
	}

	cases, total, err := h.caseSvc.List(r.Context(), projectID, isFolder, opts)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.JSONWithMeta(w, http.StatusOK, cases, buildMeta(opts, total))
}

func (h *TestCaseHandler) Tree(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	tree, err := h.caseSvc.GetTree(r.Context(), projectID, nil)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tree)
}

func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTestCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	tags := ""
	if req.Tags != nil {
		tags = *req.Tags
	}

	tc, err := h.caseSvc.Create(r.Context(), services.CreateTestCaseInput{
		ProjectID:      req.ProjectID,
		ParentID:       req.ParentID,
		Name:           req.Name,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         req.Status,
		Tags:           tags,
		GherkinContent: req.GherkinContent,
		IsAutomated:    req.IsAutomated,
		IsFolder:       req.IsFolder,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, tc)
}

func (h *TestCaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	tc, err := h.caseSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tc)
}

func (h *TestCaseHandler) FullPath(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	path, err := h.caseSvc.FullPath(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]string{"full_path": path})
}

func (h *TestCaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	var req dto.UpdateTestCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	tc, err := h.caseSvc.Update(r.Context(), id, services.UpdateTestCaseInput{
		ParentID:       req.ParentID,
		ClearParent:    req.ClearParent,
		Name:           req.Name,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         req.Status,
		Tags:           req.Tags,
		GherkinContent: req.GherkinContent,
		IsAutomated:    req.IsAutomated,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tc)
}

func (h *TestCaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	if err := h.caseSvc.Delete(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}

// File sub-resource

func (h *TestCaseHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	files, err := h.caseSvc.ListFiles(r.Context(), caseID, r.URL.Query().Get("file_type"))
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, files)
}

func (h *TestCaseHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		dto.BadRequest(w, "invalid test case ID")
		return
	}

	var req dto.CreateTestCaseFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	file, err := h.caseSvc.CreateFile(r.Context(), services.CreateTestCaseFileInput{
		TestCaseID: caseID,
		Name:       req.Name,
		FileType:   req.FileType,
		Content:    req.Content,
		Version:    req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, file)
}

func (h *TestCaseHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		dto.BadRequest(w, "invalid file ID")
		return
	}

	var req dto.UpdateTestCaseFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	file, err := h.caseSvc.UpdateFile(r.Context(), fileID, services.UpdateTestCaseFileInput{
		Name:    req.Name,
		Content: req.Content,
		Version: req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, file)
}

func (h *TestCaseHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		dto.BadRequest(w, "invalid file ID")
		return
	}

	if err := h.caseSvc.DeleteFile(r.Context(), fileID); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}
