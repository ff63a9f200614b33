package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

// TaskIntake creates tasks. When the organization has a default status the
// task row and its seed audit record are written in the same transaction, so
// a failed seeding leaves no orphan task behind.
type TaskIntake struct {
	tx       repo.TxRunner
	executor *TransitionExecutor
	now      func() time.Time
	newID    func() string
}

func NewTaskIntake(tx repo.TxRunner, executor *TransitionExecutor) *TaskIntake {
	if tx == nil || executor == nil {
		return nil
	}
	return &TaskIntake{
		tx:       tx,
		executor: executor,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create inserts the task, seeded with the organization's default status if
// one is set. The returned record is nil when there is no default, leaving
// the task awaiting its first explicit assignment. A default that has been
// deactivated fails the whole creation; nothing is persisted.
func (i *TaskIntake) Create(ctx context.Context, orgID, title, actorID string) (domain.Task, *domain.AuditRecord, error) {
	if i == nil {
		return domain.Task{}, nil, errors.New("task intake not initialized")
	}
	task := domain.Task{
		ID:             i.newID(),
		OrganizationID: strings.TrimSpace(orgID),
		Title:          strings.TrimSpace(title),
		CreatedBy:      strings.TrimSpace(actorID),
		CreatedAt:      i.now().UTC(),
	}
	if err := task.Validate(); err != nil {
		return domain.Task{}, nil, err
	}

	var record *domain.AuditRecord
	err := i.tx.InTx(ctx, func(r repo.Repositories) error {
		status, err := r.Statuses.GetDefault(ctx, task.OrganizationID)
		if errors.Is(err, repo.ErrNotFound) {
			return r.Tasks.Create(ctx, task)
		}
		if err != nil {
			return err
		}
		if !status.IsActive {
			return fmt.Errorf("%w: default status %s", domain.ErrInactiveStatus, status.Name)
		}

		seeded := task
		seeded.CurrentStatusID = &status.ID
		seeded.StatusVersion = 1
		if err := r.Tasks.Create(ctx, seeded); err != nil {
			return err
		}
		appended, err := r.Audit.Append(ctx, domain.AuditRecord{
			TaskID:         seeded.ID,
			OrganizationID: seeded.OrganizationID,
			ToStatusID:     status.ID,
			ActorID:        seeded.CreatedBy,
			ChangedAt:      seeded.CreatedAt,
		})
		if err != nil {
			return err
		}
		task = seeded
		record = &appended
		return nil
	})
	if err != nil {
		return domain.Task{}, nil, err
	}
	if record != nil {
		i.executor.export(ctx, *record)
	}
	return task, record, nil
}
