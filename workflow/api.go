package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taskflow-labs/taskflow-go/internal/auditexport"
	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/workflow"
	"github.com/taskflow-labs/taskflow-go/internal/workflowspec"
)

const maxBodyBytes = 1 << 20

type workflowAPI struct {
	logger   *slog.Logger
	catalog  *workflow.StatusCatalog
	graph    *workflow.TransitionGraph
	executor *workflow.TransitionExecutor
	intake   *workflow.TaskIntake
	history  *workflow.AuditLog
	setup    *workflow.WorkflowSetup
}

func newWorkflowAPI(
	logger *slog.Logger,
	catalog *workflow.StatusCatalog,
	graph *workflow.TransitionGraph,
	executor *workflow.TransitionExecutor,
	intake *workflow.TaskIntake,
	history *workflow.AuditLog,
	setup *workflow.WorkflowSetup,
) *workflowAPI {
	return &workflowAPI{
		logger:   logger,
		catalog:  catalog,
		graph:    graph,
		executor: executor,
		intake:   intake,
		history:  history,
		setup:    setup,
	}
}

func (api *workflowAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /organizations/{org_id}/statuses", api.handleCreateStatus)
	mux.HandleFunc("GET /organizations/{org_id}/statuses", api.handleListStatuses)
	mux.HandleFunc("POST /organizations/{org_id}/statuses/{status_id}/deactivate", api.handleDeactivateStatus)
	mux.HandleFunc("GET /organizations/{org_id}/statuses/{status_id}/transitions", api.handleListOutgoing)

	mux.HandleFunc("POST /organizations/{org_id}/transitions", api.handleAddTransition)
	mux.HandleFunc("DELETE /organizations/{org_id}/transitions", api.handleDeactivateTransition)

	mux.HandleFunc("PUT /organizations/{org_id}/workflow", api.handleSetupWorkflow)

	mux.HandleFunc("POST /organizations/{org_id}/tasks", api.handleCreateTask)
	mux.HandleFunc("POST /tasks/{task_id}/transitions", api.handleApplyTransition)
	mux.HandleFunc("GET /tasks/{task_id}/history", api.handleHistory)
	mux.HandleFunc("GET /tasks/{task_id}/history/export", api.handleHistoryExport)
}

type statusResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	DisplayName    string    `json:"display_name"`
	Color          string    `json:"color,omitempty"`
	OrderIndex     int       `json:"order_index"`
	IsActive       bool      `json:"is_active"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

func statusFromDomain(status domain.Status) statusResponse {
	return statusResponse{
		ID:             status.ID,
		OrganizationID: status.OrganizationID,
		Name:           status.Name,
		DisplayName:    status.DisplayName,
		Color:          status.Color,
		OrderIndex:     status.OrderIndex,
		IsActive:       status.IsActive,
		IsDefault:      status.IsDefault,
		CreatedAt:      status.CreatedAt,
	}
}

type transitionResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	FromStatusID   string    `json:"from_status_id"`
	ToStatusID     string    `json:"to_status_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func transitionFromDomain(edge domain.TransitionEdge) transitionResponse {
	return transitionResponse{
		ID:             edge.ID,
		OrganizationID: edge.OrganizationID,
		FromStatusID:   edge.FromStatusID,
		ToStatusID:     edge.ToStatusID,
		IsActive:       edge.IsActive,
		CreatedAt:      edge.CreatedAt,
	}
}

type taskResponse struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	Title           string    `json:"title"`
	CurrentStatusID *string   `json:"current_status_id"`
	StatusVersion   int64     `json:"status_version"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

func taskFromDomain(task domain.Task) taskResponse {
	return taskResponse{
		ID:              task.ID,
		OrganizationID:  task.OrganizationID,
		Title:           task.Title,
		CurrentStatusID: task.CurrentStatusID,
		StatusVersion:   task.StatusVersion,
		CreatedBy:       task.CreatedBy,
		CreatedAt:       task.CreatedAt,
	}
}

type auditRecordResponse struct {
	RecordID        int64     `json:"record_id"`
	TaskID          string    `json:"task_id"`
	OrganizationID  string    `json:"organization_id"`
	FromStatusID    *string   `json:"from_status_id"`
	ToStatusID      string    `json:"to_status_id"`
	ActorID         string    `json:"actor_id"`
	Note            string    `json:"note,omitempty"`
	ChangedAt       time.Time `json:"changed_at"`
	IntegritySHA256 string    `json:"integrity_sha256"`
}

func auditRecordFromDomain(record domain.AuditRecord) auditRecordResponse {
	return auditRecordResponse{
		RecordID:        record.RecordID,
		TaskID:          record.TaskID,
		OrganizationID:  record.OrganizationID,
		FromStatusID:    record.FromStatusID,
		ToStatusID:      record.ToStatusID,
		ActorID:         record.ActorID,
		Note:            record.Note,
		ChangedAt:       record.ChangedAt,
		IntegritySHA256: record.IntegritySHA256,
	}
}

func (api *workflowAPI) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
		OrderIndex  int    `json:"order_index"`
		IsDefault   bool   `json:"is_default"`
	}
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	status, err := api.catalog.CreateStatus(r.Context(), workflow.CreateStatusInput{
		OrganizationID: orgID,
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		Color:          req.Color,
		OrderIndex:     req.OrderIndex,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	api.writeJSON(w, http.StatusCreated, statusFromDomain(status))
}

func (api *workflowAPI) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_required")
		return
	}

	statuses, err := api.catalog.ListActive(r.Context(), orgID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	out := make([]statusResponse, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, statusFromDomain(status))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"statuses": out})
}

func (api *workflowAPI) handleDeactivateStatus(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	statusID := strings.TrimSpace(r.PathValue("status_id"))
	if orgID == "" || statusID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_and_status_id_required")
		return
	}

	if err := api.catalog.Deactivate(r.Context(), orgID, statusID); err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *workflowAPI) handleListOutgoing(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	statusID := strings.TrimSpace(r.PathValue("status_id"))
	if orgID == "" || statusID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_and_status_id_required")
		return
	}

	// Resolve first so an unknown status is a 404, not an empty list.
	if _, err := api.catalog.GetStatus(r.Context(), orgID, statusID); err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	statuses, err := api.graph.ListOutgoing(r.Context(), orgID, statusID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	out := make([]statusResponse, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, statusFromDomain(status))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"statuses": out})
}

func (api *workflowAPI) handleAddTransition(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_required")
		return
	}

	var req struct {
		FromStatusID string `json:"from_status_id"`
		ToStatusID   string `json:"to_status_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.FromStatusID) == "" || strings.TrimSpace(req.ToStatusID) == "" {
		api.writeError(w, r, http.StatusBadRequest, "from_and_to_status_id_required")
		return
	}

	edge, err := api.graph.AddEdge(r.Context(), orgID, req.FromStatusID, req.ToStatusID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	api.writeJSON(w, http.StatusCreated, transitionFromDomain(edge))
}

func (api *workflowAPI) handleDeactivateTransition(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	fromID := strings.TrimSpace(r.URL.Query().Get("from_status_id"))
	toID := strings.TrimSpace(r.URL.Query().Get("to_status_id"))
	if orgID == "" || fromID == "" || toID == "" {
		api.writeError(w, r, http.StatusBadRequest, "from_and_to_status_id_required")
		return
	}

	if err := api.graph.DeactivateEdge(r.Context(), orgID, fromID, toID); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			api.writeError(w, r, http.StatusNotFound, "transition_not_found")
			return
		}
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *workflowAPI) handleSetupWorkflow(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_body")
		return
	}
	def, err := workflowspec.ParseDefinition(body)
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_definition")
		return
	}

	result, err := api.setup.Setup(r.Context(), orgID, def)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}

	statuses := make([]statusResponse, 0, len(result.Statuses))
	for _, status := range result.Statuses {
		statuses = append(statuses, statusFromDomain(status))
	}
	transitions := make([]transitionResponse, 0, len(result.Edges))
	for _, edge := range result.Edges {
		transitions = append(transitions, transitionFromDomain(edge))
	}
	api.writeJSON(w, http.StatusCreated, map[string]any{
		"statuses":    statuses,
		"transitions": transitions,
	})
}

func (api *workflowAPI) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.PathValue("org_id"))
	if orgID == "" {
		api.writeError(w, r, http.StatusBadRequest, "org_id_required")
		return
	}
	actorID, ok := api.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	task, record, err := api.intake.Create(r.Context(), orgID, req.Title, actorID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	resp := map[string]any{"task": taskFromDomain(task)}
	if record != nil {
		resp["initial_transition"] = auditRecordFromDomain(*record)
	}
	api.writeJSON(w, http.StatusCreated, resp)
}

func (api *workflowAPI) handleApplyTransition(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(r.PathValue("task_id"))
	if taskID == "" {
		api.writeError(w, r, http.StatusBadRequest, "task_id_required")
		return
	}
	actorID, ok := api.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		ToStatusID string `json:"to_status_id"`
		Note       string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	// An omitted target asks for the organization's default status, which is
	// only legal as the task's first assignment.
	var record domain.AuditRecord
	var err error
	if strings.TrimSpace(req.ToStatusID) == "" {
		record, err = api.executor.AssignInitialStatus(r.Context(), taskID, actorID)
	} else {
		record, err = api.executor.ApplyTransition(r.Context(), taskID, req.ToStatusID, actorID, req.Note)
	}
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	api.writeJSON(w, http.StatusOK, auditRecordFromDomain(record))
}

func (api *workflowAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(r.PathValue("task_id"))
	if taskID == "" {
		api.writeError(w, r, http.StatusBadRequest, "task_id_required")
		return
	}

	records, err := api.history.History(r.Context(), taskID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	out := make([]auditRecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, auditRecordFromDomain(record))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (api *workflowAPI) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(r.PathValue("task_id"))
	if taskID == "" {
		api.writeError(w, r, http.StatusBadRequest, "task_id_required")
		return
	}

	records, err := api.history.History(r.Context(), taskID)
	if err != nil {
		api.writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	exporter := auditexport.NewNDJSONExporter(w)
	for _, record := range records {
		if err := exporter.Export(r.Context(), record); err != nil {
			api.logger.Error("history export write failed",
				"task_id", taskID,
				"record_id", record.RecordID,
				"error", err,
			)
			return
		}
	}
}

// actor reads the trusted caller identity header. Authentication lives in
// front of this service; an absent header is a client error.
func (api *workflowAPI) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get("X-Actor-Id"))
	if actorID == "" {
		api.writeError(w, r, http.StatusBadRequest, "actor_id_required")
		return "", false
	}
	return actorID, true
}

// writeServiceError maps domain sentinels to stable status codes; fallback
// covers errors the handler cannot classify.
func (api *workflowAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		api.writeError(w, r, http.StatusConflict, "duplicate_name")
	case errors.Is(err, domain.ErrDuplicateEdge):
		api.writeError(w, r, http.StatusConflict, "duplicate_transition")
	case errors.Is(err, domain.ErrConcurrentModification):
		api.writeError(w, r, http.StatusConflict, "concurrent_modification")
	case errors.Is(err, domain.ErrIllegalTransition):
		api.writeError(w, r, http.StatusUnprocessableEntity, "illegal_transition")
	case errors.Is(err, domain.ErrInactiveStatus):
		api.writeError(w, r, http.StatusUnprocessableEntity, "inactive_status")
	case errors.Is(err, domain.ErrUnknownStatus):
		api.writeError(w, r, http.StatusNotFound, "unknown_status")
	case errors.Is(err, domain.ErrCrossOrgReference):
		api.writeError(w, r, http.StatusNotFound, "unknown_status")
	case errors.Is(err, domain.ErrTaskNotFound):
		api.writeError(w, r, http.StatusNotFound, "task_not_found")
	case errors.Is(err, domain.ErrPersistence):
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	default:
		if fallback >= 500 {
			api.logger.Error("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			api.writeError(w, r, fallback, "internal_error")
			return
		}
		api.writeError(w, r, fallback, "invalid_request")
	}
}

func (api *workflowAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *workflowAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}
