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

// TransitionGraph owns the allow-list of (from, to) edges per organization.
// The graph is a flat edge set: legality is a single-hop lookup, cycles are
// valid, and nothing is inferred beyond the edges an organization authored.
type TransitionGraph struct {
	statuses    repo.StatusRepository
	transitions repo.TransitionRepository
	cache       *Cache
	now         func() time.Time
	newID       func() string
}

func NewTransitionGraph(statuses repo.StatusRepository, transitions repo.TransitionRepository, cache *Cache) *TransitionGraph {
	if statuses == nil || transitions == nil {
		return nil
	}
	return &TransitionGraph{
		statuses:    statuses,
		transitions: transitions,
		cache:       cache,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// AddEdge creates the edge, or reactivates the existing physical row if the
// pair was previously deactivated. Adding an edge that is already active is
// an error.
func (g *TransitionGraph) AddEdge(ctx context.Context, orgID, fromID, toID string) (domain.TransitionEdge, error) {
	if g == nil {
		return domain.TransitionEdge{}, errors.New("transition graph not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)

	for _, statusID := range []string{fromID, toID} {
		if _, err := g.statuses.Get(ctx, orgID, statusID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.TransitionEdge{}, fmt.Errorf("%w: %s", domain.ErrCrossOrgReference, statusID)
			}
			return domain.TransitionEdge{}, err
		}
	}

	existing, err := g.transitions.Get(ctx, orgID, fromID, toID)
	switch {
	case err == nil && existing.IsActive:
		return domain.TransitionEdge{}, domain.ErrDuplicateEdge
	case err == nil:
		if err := g.transitions.SetActive(ctx, orgID, fromID, toID, true); err != nil {
			return domain.TransitionEdge{}, err
		}
		existing.IsActive = true
		g.cache.InvalidateOrg(orgID)
		return existing, nil
	case !errors.Is(err, repo.ErrNotFound):
		return domain.TransitionEdge{}, err
	}

	edge := domain.TransitionEdge{
		ID:             g.newID(),
		OrganizationID: orgID,
		FromStatusID:   fromID,
		ToStatusID:     toID,
		IsActive:       true,
		CreatedAt:      g.now().UTC(),
	}
	if err := g.transitions.Create(ctx, edge); err != nil {
		return domain.TransitionEdge{}, err
	}
	g.cache.InvalidateOrg(orgID)
	return edge, nil
}

func (g *TransitionGraph) DeactivateEdge(ctx context.Context, orgID, fromID, toID string) error {
	if g == nil {
		return errors.New("transition graph not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	err := g.transitions.SetActive(ctx, orgID, strings.TrimSpace(fromID), strings.TrimSpace(toID), false)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, fromID, toID)
	}
	if err != nil {
		return err
	}
	g.cache.InvalidateOrg(orgID)
	return nil
}

// IsAllowed reports whether a task may move from fromID to toID. A nil fromID
// is the first status assignment, which is allowed into any active status of
// the organization.
func (g *TransitionGraph) IsAllowed(ctx context.Context, orgID string, fromID *string, toID string) (bool, error) {
	if g == nil {
		return false, errors.New("transition graph not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	toID = strings.TrimSpace(toID)
	if fromID == nil {
		status, err := g.statuses.Get(ctx, orgID, toID)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return status.IsActive, nil
	}
	return g.transitions.ExistsActive(ctx, orgID, strings.TrimSpace(*fromID), toID)
}

// ListOutgoing returns the active statuses reachable from fromID over active
// edges, the "next allowed statuses" surface.
func (g *TransitionGraph) ListOutgoing(ctx context.Context, orgID, fromID string) ([]domain.Status, error) {
	if g == nil {
		return nil, errors.New("transition graph not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	fromID = strings.TrimSpace(fromID)
	if cached, ok := g.cache.Outgoing(orgID, fromID); ok {
		return cached, nil
	}
	statuses, err := g.transitions.ListOutgoing(ctx, orgID, fromID)
	if err != nil {
		return nil, err
	}
	g.cache.StoreOutgoing(orgID, fromID, statuses)
	return statuses, nil
}
