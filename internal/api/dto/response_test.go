package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/template"
	"github.com/stretchr/testify/assert"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"name conflict", services.ErrNameConflict, http.StatusConflict},
		{"invalid parent", services.ErrInvalidParent, http.StatusBadRequest},
		{"has children", services.ErrHasChildren, http.StatusBadRequest},
		{"invalid node kind", services.ErrInvalidNodeKind, http.StatusBadRequest},
		{"not cancellable", services.ErrNotCancellable, http.StatusBadRequest},
		{"template syntax", &template.SyntaxError{Detail: "unexpected EOF"}, http.StatusBadRequest},
		{"template render", &template.RenderError{Detail: "bad filter"}, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)

			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			assert.NotNil(t, resp.Error)
			assert.NotEmpty(t, resp.Error.Code)
		})
	}
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestTemplateErrorMessageSurfaces(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, &template.SyntaxError{Detail: "unexpected '%}'"})

	resp := decodeEnvelope(t, rec)
	assert.Contains(t, resp.Error.Message, "unexpected '%}'")
}
