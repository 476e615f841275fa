package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/api/dto"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/queue"
	"github.com/leif888/qamanage/internal/pkg/validator"
	"github.com/rs/zerolog/log"
)

// ProgressPublisher pushes live execution progress onto the event channel
// the websocket subscriber relays to connected clients.
type ProgressPublisher interface {
	ExecutionProgress(ctx context.Context, projectID, executionID uuid.UUID, progress, passRate float64) error
}

type ExecutionHandler struct {
	executionSvc *services.ExecutionService
	queueClient  *queue.Client
	publisher    ProgressPublisher
}

func NewExecutionHandler(executionSvc *services.ExecutionService, queueClient *queue.Client, publisher ProgressPublisher) *ExecutionHandler {
	return &ExecutionHandler{executionSvc: executionSvc, queueClient: queueClient, publisher: publisher}
}

func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		dto.BadRequest(w, "project_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	status := r.URL.Query().Get("status")
	opts := repositories.NewListOptions(page, perPage).
		WithSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("order"))

	executions, total, err := h.executionSvc.List(r.Context(), projectID, status, opts)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.JSONWithMeta(w, http.StatusOK, executions, buildMeta(opts, total))
}

// Create stores the execution and queues it for a worker; the response is
// 202 because the run happens asynchronously.
func (h *ExecutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}
	if len(req.TestCaseIDs) == 0 && len(req.Tags) == 0 {
		dto.BadRequest(w, "either test_case_ids or tags must be provided")
		return
	}

	execution, err := h.executionSvc.Create(r.Context(), services.CreateExecutionInput{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		TestCaseIDs: req.TestCaseIDs,
		Tags:        req.Tags,
		Environment: req.Environment,
		Browser:     req.Browser,
		Headless:    req.Headless,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	enqueue := h.queueClient.EnqueueExecutionRun
	if req.Priority == dto.ExecutionPriorityHigh {
		enqueue = h.queueClient.EnqueuePriorityExecutionRun
	}
	if _, err := enqueue(r.Context(), queue.ExecutionRunPayload{
		ExecutionID: execution.ID,
	}); err != nil {
		log.Error().Err(err).Str("execution_id", execution.ID.String()).Msg("Failed to enqueue execution")
		if failErr := h.executionSvc.Fail(r.Context(), execution.ID, "failed to enqueue execution"); failErr != nil {
			log.Error().Err(failErr).Msg("Failed to mark execution failed")
		}
		dto.InternalServerError(w, "failed to enqueue execution")
		return
	}

	dto.Accepted(w, execution)
}

func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	execution, err := h.executionSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, execution)
}

func (h *ExecutionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	execution, err := h.executionSvc.Cancel(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, execution)
}

func (h *ExecutionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	execution, err := h.executionSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]interface{}{
		"execution_id":  execution.ID.String(),
		"status":        execution.Status,
		"progress":      execution.Progress,
		"pass_rate":     execution.PassRate,
		"total_cases":   execution.TotalCases,
		"passed_cases":  execution.PassedCases,
		"failed_cases":  execution.FailedCases,
		"skipped_cases": execution.SkippedCases,
	})
}

// Report returns the full execution document with its step results, the
// same shape the summary dashboards consume.
func (h *ExecutionHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	execution, err := h.executionSvc.Get(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	results, err := h.executionSvc.StepResults(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, map[string]interface{}{
		"execution":    execution,
		"step_results": results,
	})
}

func (h *ExecutionHandler) StepResults(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	results, err := h.executionSvc.StepResults(r.Context(), id)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, results)
}

// AddStepResult is the callback endpoint the external runner posts step
// outcomes to while a run is in flight.
func (h *ExecutionHandler) AddStepResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "executionID"))
	if err != nil {
		dto.BadRequest(w, "invalid execution ID")
		return
	}

	var req dto.AddStepResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.BadRequest(w, "invalid request body")
		return
	}
	if err := validator.Validate(&req); err != nil {
		dto.ValidationErrorResponse(w, err)
		return
	}

	result, err := h.executionSvc.AddStepResult(r.Context(), id, services.AddStepResultInput{
		StepName:      req.StepName,
		Keyword:       req.Keyword,
		Result:        req.Result,
		Message:       req.Message,
		Screenshot:    req.Screenshot,
		ExecutionTime: req.ExecutionTime,
	})
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	h.publishProgress(r.Context(), id)

	dto.Created(w, result)
}

// publishProgress emits an execution.progress event so websocket watchers
// see runs advance step by step instead of only at the end.
func (h *ExecutionHandler) publishProgress(ctx context.Context, executionID uuid.UUID) {
	if h.publisher == nil {
		return
	}
	execution, err := h.executionSvc.Get(ctx, executionID)
	if err != nil {
		return
	}
	if err := h.publisher.ExecutionProgress(ctx, execution.ProjectID, execution.ID,
		execution.Progress, execution.PassRate); err != nil {
		log.Warn().Err(err).Str("execution_id", executionID.String()).Msg("Failed to publish progress event")
	}
}

// Summary aggregates execution history, optionally filtered by project_id.
func (h *ExecutionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var projectID *uuid.UUID
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			dto.BadRequest(w, "invalid project_id")
			return
		}
		projectID = &id
	}

	summary, err := h.executionSvc.Summary(r.Context(), projectID)
	if err != nil {
		dto.HandleServiceError(w, err)
		return
	}

	dto.OK(w, summary)
}
