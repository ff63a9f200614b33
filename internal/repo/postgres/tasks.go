package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

type TaskStore struct {
	db DB
}

func NewTaskStore(db DB) *TaskStore {
	if db == nil {
		return nil
	}
	return &TaskStore{db: db}
}

const insertTaskQuery = `INSERT INTO tasks (
	task_id,
	organization_id,
	title,
	current_status_id,
	status_version,
	created_by,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)`

const selectTaskQuery = `SELECT task_id, organization_id, title, current_status_id, status_version, created_by, created_at
	FROM tasks
	WHERE task_id = $1`

// The version predicate is the optimistic lock: a concurrent writer that
// committed first bumps status_version and this update matches zero rows.
const updateTaskStatusQuery = `UPDATE tasks
	SET current_status_id = $2, status_version = status_version + 1
	WHERE task_id = $1 AND status_version = $3`

func (s *TaskStore) Create(ctx context.Context, task domain.Task) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("task store not initialized")
	}
	if err := task.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		insertTaskQuery,
		strings.TrimSpace(task.ID),
		strings.TrimSpace(task.OrganizationID),
		strings.TrimSpace(task.Title),
		nullIfNilOrEmpty(task.CurrentStatusID),
		task.StatusVersion,
		strings.TrimSpace(task.CreatedBy),
		normalizeTime(task.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	if s == nil || s.db == nil {
		return domain.Task{}, fmt.Errorf("task store not initialized")
	}
	var (
		task          domain.Task
		currentStatus sql.NullString
	)
	row := s.db.QueryRowContext(ctx, selectTaskQuery, strings.TrimSpace(id))
	if err := row.Scan(&task.ID, &task.OrganizationID, &task.Title, &currentStatus, &task.StatusVersion, &task.CreatedBy, &task.CreatedAt); err != nil {
		return domain.Task{}, handleNotFound(err)
	}
	task.CurrentStatusID = stringPtr(currentStatus)
	return task, nil
}

func (s *TaskStore) UpdateStatus(ctx context.Context, taskID, toStatusID string, expectedVersion int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("task store not initialized")
	}
	res, err := s.db.ExecContext(
		ctx,
		updateTaskStatusQuery,
		strings.TrimSpace(taskID),
		strings.TrimSpace(toStatusID),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if affected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}
