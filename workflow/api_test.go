package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeJSON_RejectsExtraValue(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.test/", strings.NewReader("{\"title\":\"a\"} {\"title\":\"b\"}"))
	var dst struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeJSON_RejectsTrailingGarbage(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.test/", strings.NewReader("{\"title\":\"a\"} trailing"))
	var dst struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeJSON_DisallowUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.test/", strings.NewReader("{\"title\":\"a\",\"extra\":1}"))
	var dst struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriteServiceError_StatusMapping(t *testing.T) {
	api := &workflowAPI{logger: testLogger()}

	cases := []struct {
		err        error
		fallback   int
		wantStatus int
		wantCode   string
	}{
		{domain.ErrDuplicateName, http.StatusInternalServerError, http.StatusConflict, "duplicate_name"},
		{domain.ErrDuplicateEdge, http.StatusInternalServerError, http.StatusConflict, "duplicate_transition"},
		{domain.ErrConcurrentModification, http.StatusInternalServerError, http.StatusConflict, "concurrent_modification"},
		{domain.ErrIllegalTransition, http.StatusInternalServerError, http.StatusUnprocessableEntity, "illegal_transition"},
		{domain.ErrInactiveStatus, http.StatusInternalServerError, http.StatusUnprocessableEntity, "inactive_status"},
		{domain.ErrUnknownStatus, http.StatusInternalServerError, http.StatusNotFound, "unknown_status"},
		{domain.ErrCrossOrgReference, http.StatusInternalServerError, http.StatusNotFound, "unknown_status"},
		{domain.ErrTaskNotFound, http.StatusInternalServerError, http.StatusNotFound, "task_not_found"},
		{domain.ErrPersistence, http.StatusBadRequest, http.StatusInternalServerError, "internal_error"},
		{fmt.Errorf("wrapped: %w", domain.ErrIllegalTransition), http.StatusInternalServerError, http.StatusUnprocessableEntity, "illegal_transition"},
		{fmt.Errorf("title is required"), http.StatusBadRequest, http.StatusBadRequest, "invalid_request"},
		{fmt.Errorf("driver broke"), http.StatusInternalServerError, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "http://example.test/", nil)
		api.writeServiceError(rec, req, tc.err, tc.fallback)
		if rec.Code != tc.wantStatus {
			t.Fatalf("err %v: status = %d, want %d", tc.err, rec.Code, tc.wantStatus)
		}
		if !strings.Contains(rec.Body.String(), tc.wantCode) {
			t.Fatalf("err %v: body %q missing code %q", tc.err, rec.Body.String(), tc.wantCode)
		}
	}
}

func TestActorHeaderRequired(t *testing.T) {
	api := &workflowAPI{logger: testLogger()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "http://example.test/tasks/t1/transitions", nil)
	if _, ok := api.actor(rec, req); ok {
		t.Fatalf("expected missing actor header to fail")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "http://example.test/tasks/t1/transitions", nil)
	req.Header.Set("X-Actor-Id", "  user-1  ")
	actor, ok := api.actor(rec, req)
	if !ok || actor != "user-1" {
		t.Fatalf("actor = %q ok=%v, want user-1", actor, ok)
	}
}
