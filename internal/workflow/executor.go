package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/taskflow-labs/taskflow-go/internal/auditexport"
	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

const defaultMaxRetries = 3

// TransitionExecutor applies validated status changes. Each attempt loads the
// task, validates the target against the catalog and the graph, then commits
// the status update and the audit append in one transaction guarded by the
// task's version counter. A version conflict means another writer won the
// race; the attempt is retried against the task's new state, every other
// error is terminal and leaves the task and its history untouched.
type TransitionExecutor struct {
	tx       repo.TxRunner
	tasks    repo.TaskRepository
	catalog  *StatusCatalog
	graph    *TransitionGraph
	exporter auditexport.Exporter
	logger   *slog.Logger

	now        func() time.Time
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewTransitionExecutor(tx repo.TxRunner, tasks repo.TaskRepository, catalog *StatusCatalog, graph *TransitionGraph, exporter auditexport.Exporter, logger *slog.Logger) *TransitionExecutor {
	if tx == nil || tasks == nil || catalog == nil || graph == nil {
		return nil
	}
	if exporter == nil {
		exporter = auditexport.NoopExporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionExecutor{
		tx:         tx,
		tasks:      tasks,
		catalog:    catalog,
		graph:      graph,
		exporter:   exporter,
		logger:     logger,
		now:        time.Now,
		maxRetries: defaultMaxRetries,
		newBackOff: newConflictBackOff,
	}
}

func newConflictBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 2 * time.Second
	return bo
}

// ApplyTransition moves the task to toStatusID and returns the audit record
// of the realized change.
func (e *TransitionExecutor) ApplyTransition(ctx context.Context, taskID, toStatusID, actorID, note string) (domain.AuditRecord, error) {
	if e == nil {
		return domain.AuditRecord{}, errors.New("transition executor not initialized")
	}
	if strings.TrimSpace(actorID) == "" {
		return domain.AuditRecord{}, errors.New("actor id is required")
	}

	var record domain.AuditRecord
	op := func() error {
		rec, err := e.applyOnce(ctx, taskID, toStatusID, actorID, note)
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				return err
			}
			return backoff.Permanent(err)
		}
		record = rec
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), e.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return domain.AuditRecord{}, err
	}

	e.export(ctx, record)
	return record, nil
}

// AssignInitialStatus seeds a task that has no prior history with the
// organization's default status. The resulting audit record carries a nil
// from-status.
func (e *TransitionExecutor) AssignInitialStatus(ctx context.Context, taskID, actorID string) (domain.AuditRecord, error) {
	if e == nil {
		return domain.AuditRecord{}, errors.New("transition executor not initialized")
	}
	task, err := e.getTask(ctx, taskID)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	if task.CurrentStatusID != nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: task already has a status", domain.ErrIllegalTransition)
	}
	status, ok, err := e.catalog.GetDefaultStatus(ctx, task.OrganizationID)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	if !ok {
		return domain.AuditRecord{}, fmt.Errorf("%w: organization has no default status", domain.ErrUnknownStatus)
	}
	return e.ApplyTransition(ctx, taskID, status.ID, actorID, "")
}

func (e *TransitionExecutor) applyOnce(ctx context.Context, taskID, toStatusID, actorID, note string) (domain.AuditRecord, error) {
	task, err := e.getTask(ctx, taskID)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	status, err := e.catalog.GetStatus(ctx, task.OrganizationID, toStatusID)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	if !status.IsActive {
		return domain.AuditRecord{}, fmt.Errorf("%w: %s", domain.ErrInactiveStatus, status.Name)
	}

	allowed, err := e.graph.IsAllowed(ctx, task.OrganizationID, task.CurrentStatusID, status.ID)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	if !allowed {
		return domain.AuditRecord{}, domain.ErrIllegalTransition
	}

	record := domain.AuditRecord{
		TaskID:         task.ID,
		OrganizationID: task.OrganizationID,
		FromStatusID:   task.CurrentStatusID,
		ToStatusID:     status.ID,
		ActorID:        strings.TrimSpace(actorID),
		Note:           strings.TrimSpace(note),
		ChangedAt:      e.now().UTC(),
	}

	err = e.tx.InTx(ctx, func(r repo.Repositories) error {
		if err := r.Tasks.UpdateStatus(ctx, task.ID, status.ID, task.StatusVersion); err != nil {
			return err
		}
		appended, err := r.Audit.Append(ctx, record)
		if err != nil {
			return err
		}
		record = appended
		return nil
	})
	if err != nil {
		return domain.AuditRecord{}, err
	}
	return record, nil
}

func (e *TransitionExecutor) getTask(ctx context.Context, taskID string) (domain.Task, error) {
	task, err := e.tasks.Get(ctx, taskID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, strings.TrimSpace(taskID))
	}
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// export ships the committed record; the transition has already committed,
// so failures are logged and swallowed.
func (e *TransitionExecutor) export(ctx context.Context, record domain.AuditRecord) {
	if err := e.exporter.Export(ctx, record); err != nil {
		e.logger.Error("audit export failed",
			"task_id", record.TaskID,
			"record_id", record.RecordID,
			"error", err,
		)
	}
}
