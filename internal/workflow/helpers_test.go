package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// testEnv wires every service against one in-memory store with deterministic
// ids and a clock that advances one second per call.
type testEnv struct {
	store    *memStore
	cache    *Cache
	catalog  *StatusCatalog
	graph    *TransitionGraph
	executor *TransitionExecutor
	intake   *TaskIntake
	history  *AuditLog
	setup    *WorkflowSetup
	exporter *captureExporter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	cache, err := NewCache(64)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	repos := store.repos()

	idSeq := 0
	newID := func() string {
		idSeq++
		return fmt.Sprintf("id-%03d", idSeq)
	}
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter := &captureExporter{}

	catalog := NewStatusCatalog(repos.Statuses, store, cache)
	catalog.now, catalog.newID = now, newID
	graph := NewTransitionGraph(repos.Statuses, repos.Transitions, cache)
	graph.now, graph.newID = now, newID
	executor := NewTransitionExecutor(store, repos.Tasks, catalog, graph, exporter, logger)
	executor.now = now
	executor.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	intake := NewTaskIntake(store, executor)
	intake.now, intake.newID = now, newID
	history := NewAuditLog(repos.Tasks, repos.Audit)
	setup := NewWorkflowSetup(store, cache)
	setup.now, setup.newID = now, newID

	return &testEnv{
		store:    store,
		cache:    cache,
		catalog:  catalog,
		graph:    graph,
		executor: executor,
		intake:   intake,
		history:  history,
		setup:    setup,
		exporter: exporter,
	}
}

func (e *testEnv) mustCreateStatus(t *testing.T, in CreateStatusInput) domain.Status {
	t.Helper()
	status, err := e.catalog.CreateStatus(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateStatus(%s): %v", in.Name, err)
	}
	return status
}

func (e *testEnv) mustAddEdge(t *testing.T, orgID, fromID, toID string) domain.TransitionEdge {
	t.Helper()
	edge, err := e.graph.AddEdge(context.Background(), orgID, fromID, toID)
	if err != nil {
		t.Fatalf("AddEdge(%s -> %s): %v", fromID, toID, err)
	}
	return edge
}

func (e *testEnv) mustCreateTask(t *testing.T, orgID, title, actorID string) domain.Task {
	t.Helper()
	task, _, err := e.intake.Create(context.Background(), orgID, title, actorID)
	if err != nil {
		t.Fatalf("Create task %q: %v", title, err)
	}
	return task
}

type captureExporter struct {
	records []domain.AuditRecord
	err     error
}

func (c *captureExporter) Export(ctx context.Context, record domain.AuditRecord) error {
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, record)
	return nil
}
