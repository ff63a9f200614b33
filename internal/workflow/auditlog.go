package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

// AuditLog is the read surface over a task's append-only history.
type AuditLog struct {
	tasks repo.TaskRepository
	audit repo.AuditLogRepository
}

func NewAuditLog(tasks repo.TaskRepository, audit repo.AuditLogRepository) *AuditLog {
	if tasks == nil || audit == nil {
		return nil
	}
	return &AuditLog{tasks: tasks, audit: audit}
}

// History returns every status change of the task in chronological order,
// insertion order breaking timestamp ties.
func (l *AuditLog) History(ctx context.Context, taskID string) ([]domain.AuditRecord, error) {
	if l == nil {
		return nil, errors.New("audit log not initialized")
	}
	if _, err := l.tasks.Get(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, strings.TrimSpace(taskID))
		}
		return nil, err
	}
	return l.audit.History(ctx, taskID)
}
