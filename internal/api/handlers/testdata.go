package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/api/dto"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/metrics"
	"github.com/leif888/qamanage/internal/pkg/validator"
)

type TestDataHandler struct {
	dataSvc *services.TestDataService
}

func NewTestDataHandler(dataSvc *services.TestDataService) *TestDataHandler {
	return &TestDataHandler{dataSvc: dataSvc}
}

func (h *TestDataHandler) Tree(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	tree, err := h.dataSvc.GetTree(r.Context(), projectID, nil)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tree)
}

func (h *TestDataHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTestDataNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	node, err := h.dataSvc.Create(r.Context(), services.CreateDataNodeInput{
		ProjectID:         req.ProjectID,
		ParentID:          req.ParentID,
		Name:              req.Name,
		Description:       req.Description,
		NodeType:          req.NodeType,
		SortOrder:         req.SortOrder,
		DataContent:       req.DataContent,
		Template:          req.Template,
		TemplateVariables: req.TemplateVariables,
		Version:           req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, node)
}

func (h *TestDataHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		dto.BadRequest(w, "invalid node ID")
		return
	}

	node, err := h.dataSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, node)
}

func (h *TestDataHandler) FullPath(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		dto.BadRequest(w, "invalid node ID")
		return
	}

	path, err := h.dataSvc.FullPath(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]string{"full_path": path})
}

func (h *TestDataHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		dto.BadRequest(w, "invalid node ID")
		return
	}

	var req dto.UpdateTestDataNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	node, err := h.dataSvc.Update(r.Context(), id, services.UpdateDataNodeInput{
		ParentID:          req.ParentID,
		ClearParent:       req.ClearParent,
		Name:              req.Name,
		Description:       req.Description,
		SortOrder:         req.SortOrder,
		DataContent:       req.DataContent,
		Template:          req.Template,
		TemplateVariables: req.TemplateVariables,
		Version:           req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, node)
}

func (h *TestDataHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		dto.BadRequest(w, "invalid node ID")
		return
	}

	if err := h.dataSvc.Delete(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}

func (h *TestDataHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		dto.BadRequest(w, "invalid node ID")
		return
	}

	var req dto.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}

	rendered, err := h.dataSvc.Render(r.Context(), id, req.Variables)
	if err != nil {
		metrics.RecordTemplateRender("test_data", "error")
		dto.HandleServiceError(w, err)
		return
	}
	metrics.RecordTemplateRender("test_data", "ok")

	dto.OK(w, map[string]string{"rendered": rendered})
}
