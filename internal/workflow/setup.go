package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
	"github.com/taskflow-labs/taskflow-go/internal/workflowspec"
)

// WorkflowSetup provisions a complete workflow for an organization in one
// transaction: every status and every edge, or nothing.
type WorkflowSetup struct {
	tx    repo.TxRunner
	cache *Cache
	now   func() time.Time
	newID func() string
}

func NewWorkflowSetup(tx repo.TxRunner, cache *Cache) *WorkflowSetup {
	if tx == nil {
		return nil
	}
	return &WorkflowSetup{
		tx:    tx,
		cache: cache,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type SetupResult struct {
	Statuses []domain.Status
	Edges    []domain.TransitionEdge
}

func (s *WorkflowSetup) Setup(ctx context.Context, orgID string, def workflowspec.Definition) (SetupResult, error) {
	if s == nil {
		return SetupResult{}, errors.New("workflow setup not initialized")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return SetupResult{}, errors.New("organization id is required")
	}
	if err := def.Validate(); err != nil {
		return SetupResult{}, err
	}

	var result SetupResult
	createdAt := s.now().UTC()
	err := s.tx.InTx(ctx, func(r repo.Repositories) error {
		if _, hasDefault := def.DefaultStatusName(); hasDefault {
			if err := r.Statuses.ClearDefault(ctx, orgID); err != nil {
				return err
			}
		}

		idByName := make(map[string]string, len(def.Statuses))
		for _, statusDef := range def.Statuses {
			status := domain.Status{
				ID:             s.newID(),
				OrganizationID: orgID,
				Name:           strings.TrimSpace(statusDef.Name),
				DisplayName:    strings.TrimSpace(statusDef.DisplayName),
				Color:          strings.TrimSpace(statusDef.Color),
				OrderIndex:     statusDef.OrderIndex,
				IsActive:       true,
				IsDefault:      statusDef.IsDefault,
				CreatedAt:      createdAt,
			}
			if err := r.Statuses.Create(ctx, status); err != nil {
				return err
			}
			idByName[status.Name] = status.ID
			result.Statuses = append(result.Statuses, status)
		}

		for _, edgeDef := range def.Transitions {
			edge := domain.TransitionEdge{
				ID:             s.newID(),
				OrganizationID: orgID,
				FromStatusID:   idByName[strings.TrimSpace(edgeDef.From)],
				ToStatusID:     idByName[strings.TrimSpace(edgeDef.To)],
				IsActive:       true,
				CreatedAt:      createdAt,
			}
			if err := r.Transitions.Create(ctx, edge); err != nil {
				return err
			}
			result.Edges = append(result.Edges, edge)
		}
		return nil
	})
	if err != nil {
		return SetupResult{}, err
	}
	s.cache.InvalidateOrg(orgID)
	return result, nil
}
