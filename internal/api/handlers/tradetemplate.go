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
	"github.com/leif888/qamanage/internal/pkg/metrics"
	"github.com/leif888/qamanage/internal/pkg/validator"
)

type TradeTemplateHandler struct {
	templateSvc *services.TradeTemplateService
}

func NewTradeTemplateHandler(templateSvc *services.TradeTemplateService) *TradeTemplateHandler {
	return &TradeTemplateHandler{templateSvc: templateSvc}
}

func (h *TradeTemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	nodeType := r.URL.Query().Get("node_type")
	opts := repositories.NewListOptions(page, perPage).
		WithSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("order"))

	templates, total, err := h.templateSvc.List(r.Context(), projectID, nodeType, opts)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.JSONWithMeta(w, http.StatusOK, templates, buildMeta(opts, total))
}

func (h *TradeTemplateHandler) Tree(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	tree, err := h.templateSvc.GetTree(r.Context(), projectID, nil)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tree)
}

func (h *TradeTemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTradeTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	tpl, err := h.templateSvc.Create(r.Context(), services.CreateTradeTemplateInput{
		ProjectID:         req.ProjectID,
		ParentID:          req.ParentID,
		Name:              req.Name,
		Description:       req.Description,
		NodeType:          req.NodeType,
		SortOrder:         req.SortOrder,
		Content:           req.Content,
		TemplateVariables: req.TemplateVariables,
		Version:           req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.Created(w, tpl)
}

func (h *TradeTemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	tpl, err := h.templateSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tpl)
}

func (h *TradeTemplateHandler) FullPath(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	path, err := h.templateSvc.FullPath(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]string{"full_path": path})
}

func (h *TradeTemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	var req dto.UpdateTradeTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	tpl, err := h.templateSvc.Update(r.Context(), id, services.UpdateTradeTemplateInput{
		ParentID:          req.ParentID,
		ClearParent:       req.ClearParent,
		Name:              req.Name,
		Description:       req.Description,
		SortOrder:         req.SortOrder,
		Content:           req.Content,
		TemplateVariables: req.TemplateVariables,
		Version:           req.Version,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, tpl)
}

func (h *TradeTemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	if err := h.templateSvc.Delete(r.Context(), id); err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.NoContent(w)
}

func (h *TradeTemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	var req dto.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}

	rendered, err := h.templateSvc.RenderNode(r.Context(), id, req.Variables)
	if err != nil {
		metrics.RecordTemplateRender("trade_template", "error")
		dto.HandleServiceError(w, err)
		return
	}
	metrics.RecordTemplateRender("trade_template", "ok")

	dto.OK(w, map[string]string{"rendered": rendered})
}

func (h *TradeTemplateHandler) RenderText(w http.ResponseWriter, r *http.Request) {
	var req dto.RenderTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	rendered, err := h.templateSvc.RenderText(r.Context(), req.Text, req.Variables)
	if err != nil {
		metrics.RecordTemplateRender("ad_hoc", "error")
		dto.HandleServiceError(w, err)
		return
	}
	metrics.RecordTemplateRender("ad_hoc", "ok")

	dto.OK(w, map[string]string{"rendered": rendered})
}

func (h *TradeTemplateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		dto.BadRequest(w, "invalid template ID")
		return
	}

	result, err := h.templateSvc.Validate(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, result)
}
