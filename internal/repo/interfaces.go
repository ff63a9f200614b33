package repo

import (
	"context"
	"errors"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// ErrNotFound is returned by lookups that match no row. Callers map it to the
// appropriate domain error for the entity they asked about.
var ErrNotFound = errors.New("not found")

// StatusRepository manages the per-organization status catalog. Statuses are
// never deleted; SetActive is the only removal path.
type StatusRepository interface {
	Create(ctx context.Context, status domain.Status) error
	Get(ctx context.Context, orgID, id string) (domain.Status, error)
	GetDefault(ctx context.Context, orgID string) (domain.Status, error)
	ListActive(ctx context.Context, orgID string) ([]domain.Status, error)
	// ClearDefault unsets is_default on every status of the organization.
	ClearDefault(ctx context.Context, orgID string) error
	SetActive(ctx context.Context, orgID, id string, active bool) error
}

// TransitionRepository manages the allow-list edge set.
type TransitionRepository interface {
	Create(ctx context.Context, edge domain.TransitionEdge) error
	Get(ctx context.Context, orgID, fromID, toID string) (domain.TransitionEdge, error)
	SetActive(ctx context.Context, orgID, fromID, toID string, active bool) error
	ExistsActive(ctx context.Context, orgID, fromID, toID string) (bool, error)
	// ListOutgoing returns the active target statuses reachable over active
	// edges from the given status.
	ListOutgoing(ctx context.Context, orgID, fromID string) ([]domain.Status, error)
}

// TaskRepository manages the mutable current-status projection.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) error
	Get(ctx context.Context, id string) (domain.Task, error)
	// UpdateStatus compares-and-swaps the task's status: the update applies
	// only if status_version still equals expectedVersion, and returns
	// domain.ErrConcurrentModification otherwise.
	UpdateStatus(ctx context.Context, taskID, toStatusID string, expectedVersion int64) error
}

// AuditLogRepository is append-only; records are never updated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
	History(ctx context.Context, taskID string) ([]domain.AuditRecord, error)
}

// Repositories bundles the stores bound to one unit of work.
type Repositories struct {
	Statuses    StatusRepository
	Transitions TransitionRepository
	Tasks       TaskRepository
	Audit       AuditLogRepository
}

// TxRunner executes fn against repositories bound to a single transaction.
// If fn returns an error the transaction rolls back and nothing is applied.
type TxRunner interface {
	InTx(ctx context.Context, fn func(r Repositories) error) error
}
