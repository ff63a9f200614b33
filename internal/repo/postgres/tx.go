package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

// Runner executes units of work against a single database transaction. A
// failed commit surfaces as domain.ErrPersistence with nothing applied.
type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner {
	if db == nil {
		return nil
	}
	return &Runner{db: db}
}

func (r *Runner) InTx(ctx context.Context, fn func(repos repo.Repositories) error) error {
	if r == nil || r.db == nil {
		return errors.New("tx runner not initialized")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}

	repos := NewRepositories(tx)
	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

// NewRepositories binds all stores to one query surface, either a *sql.DB or
// an open transaction.
func NewRepositories(db DB) repo.Repositories {
	return repo.Repositories{
		Statuses:    NewStatusStore(db),
		Transitions: NewTransitionStore(db),
		Tasks:       NewTaskStore(db),
		Audit:       NewAuditLogStore(db),
	}
}
