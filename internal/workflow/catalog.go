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

// StatusCatalog owns the per-organization status set. At most one status per
// organization is the default; setting a new default clears the previous one
// in the same transaction.
type StatusCatalog struct {
	statuses repo.StatusRepository
	tx       repo.TxRunner
	cache    *Cache
	now      func() time.Time
	newID    func() string
}

func NewStatusCatalog(statuses repo.StatusRepository, tx repo.TxRunner, cache *Cache) *StatusCatalog {
	if statuses == nil || tx == nil {
		return nil
	}
	return &StatusCatalog{
		statuses: statuses,
		tx:       tx,
		cache:    cache,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type CreateStatusInput struct {
	OrganizationID string
	Name           string
	DisplayName    string
	Color          string
	OrderIndex     int
	IsDefault      bool
}

func (c *StatusCatalog) CreateStatus(ctx context.Context, in CreateStatusInput) (domain.Status, error) {
	if c == nil {
		return domain.Status{}, errors.New("status catalog not initialized")
	}
	status := domain.Status{
		ID:             c.newID(),
		OrganizationID: strings.TrimSpace(in.OrganizationID),
		Name:           strings.TrimSpace(in.Name),
		DisplayName:    strings.TrimSpace(in.DisplayName),
		Color:          strings.TrimSpace(in.Color),
		OrderIndex:     in.OrderIndex,
		IsActive:       true,
		IsDefault:      in.IsDefault,
		CreatedAt:      c.now().UTC(),
	}
	if err := status.Validate(); err != nil {
		return domain.Status{}, err
	}

	err := c.tx.InTx(ctx, func(r repo.Repositories) error {
		if status.IsDefault {
			if err := r.Statuses.ClearDefault(ctx, status.OrganizationID); err != nil {
				return err
			}
		}
		return r.Statuses.Create(ctx, status)
	})
	if err != nil {
		return domain.Status{}, err
	}
	c.cache.InvalidateOrg(status.OrganizationID)
	return status, nil
}

// GetStatus resolves a status within the organization's scope. A status that
// exists but belongs to another organization is indistinguishable from one
// that does not exist.
func (c *StatusCatalog) GetStatus(ctx context.Context, orgID, statusID string) (domain.Status, error) {
	if c == nil {
		return domain.Status{}, errors.New("status catalog not initialized")
	}
	status, err := c.statuses.Get(ctx, orgID, statusID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Status{}, fmt.Errorf("%w: %s", domain.ErrUnknownStatus, strings.TrimSpace(statusID))
	}
	if err != nil {
		return domain.Status{}, err
	}
	return status, nil
}

func (c *StatusCatalog) GetDefaultStatus(ctx context.Context, orgID string) (domain.Status, bool, error) {
	if c == nil {
		return domain.Status{}, false, errors.New("status catalog not initialized")
	}
	status, err := c.statuses.GetDefault(ctx, orgID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Status{}, false, nil
	}
	if err != nil {
		return domain.Status{}, false, err
	}
	return status, true, nil
}

// Deactivate soft-disables a status. Tasks and edges already referencing it
// stay valid; the transition executor rejects it as a new target only.
func (c *StatusCatalog) Deactivate(ctx context.Context, orgID, statusID string) error {
	if c == nil {
		return errors.New("status catalog not initialized")
	}
	err := c.statuses.SetActive(ctx, orgID, statusID, false)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownStatus, strings.TrimSpace(statusID))
	}
	if err != nil {
		return err
	}
	c.cache.InvalidateOrg(strings.TrimSpace(orgID))
	return nil
}

func (c *StatusCatalog) ListActive(ctx context.Context, orgID string) ([]domain.Status, error) {
	if c == nil {
		return nil, errors.New("status catalog not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	if cached, ok := c.cache.ActiveStatuses(orgID); ok {
		return cached, nil
	}
	statuses, err := c.statuses.ListActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	c.cache.StoreActiveStatuses(orgID, statuses)
	return statuses, nil
}
