package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/template"
	"github.com/leif888/qamanage/internal/pkg/validator"
	"github.com/rs/zerolog/log"
)

// Error codes for consistent API responses
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavail = "SERVICE_UNAVAILABLE"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *ErrorData  `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type ErrorData struct {
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Details []validator.ValidationError `json:"details,omitempty"`
}

type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// getRequestID extracts request ID from response header if set
func getRequestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-ID")
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success:   status >= 200 && status < 300,
		Data:      data,
		RequestID: getRequestID(w),
		Timestamp: time.Now().Unix(),
	}

	_ = json.NewEncoder(w).Encode(response)
}

func JSONWithMeta(w http.ResponseWriter, status int, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(w),
		Timestamp: time.Now().Unix(),
	}

	_ = json.NewEncoder(w).Encode(response)
}

func errorWithCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := Response{
		Success:   false,
		RequestID: getRequestID(w),
		Timestamp: time.Now().Unix(),
		Error: &ErrorData{
			Code:    code,
			Message: message,
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

func ValidationErrorResponse(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	response := Response{
		Success:   false,
		RequestID: getRequestID(w),
		Timestamp: time.Now().Unix(),
		Error: &ErrorData{
			Code:    ErrCodeValidation,
			Message: "Validation failed",
			Details: validator.FormatErrors(err),
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

// HandleServiceError translates service sentinel errors to HTTP responses.
// Unknown errors are logged and surfaced as a generic 500.
func HandleServiceError(w http.ResponseWriter, err error) {
	var syntaxErr *template.SyntaxError
	var renderErr *template.RenderError

	switch {
	case errors.Is(err, services.ErrNotFound):
		errorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Resource not found")
	case errors.Is(err, services.ErrNameConflict):
		errorWithCode(w, http.StatusConflict, ErrCodeConflict, "Name already in use")
	case errors.Is(err, services.ErrInvalidParent):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid parent node")
	case errors.Is(err, services.ErrHasChildren):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, "Node still has children")
	case errors.Is(err, services.ErrInvalidNodeKind):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, "Operation not valid for this node kind")
	case errors.Is(err, services.ErrInvalidEnumValue):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid enum value")
	case errors.Is(err, services.ErrNotCancellable):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, "Execution is already finished")
	case errors.As(err, &syntaxErr):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, syntaxErr.Error())
	case errors.As(err, &renderErr):
		errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, renderErr.Error())
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		errorWithCode(w, http.StatusInternalServerError, ErrCodeInternalServer, "Internal server error")
	}
}

// Convenience helpers

func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func Accepted(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusAccepted, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func BadRequest(w http.ResponseWriter, message string) {
	errorWithCode(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func NotFound(w http.ResponseWriter, resource string) {
	message := resource + " not found"
	errorWithCode(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	errorWithCode(w, http.StatusConflict, ErrCodeConflict, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	errorWithCode(w, http.StatusInternalServerError, ErrCodeInternalServer, message)
}
