package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

type TransitionStore struct {
	db DB
}

func NewTransitionStore(db DB) *TransitionStore {
	if db == nil {
		return nil
	}
	return &TransitionStore{db: db}
}

const insertTransitionQuery = `INSERT INTO workflow_transitions (
	transition_id,
	organization_id,
	from_status_id,
	to_status_id,
	is_active,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6)`

const selectTransitionQuery = `SELECT transition_id, organization_id, from_status_id, to_status_id, is_active, created_at
	FROM workflow_transitions
	WHERE organization_id = $1 AND from_status_id = $2 AND to_status_id = $3`

const setTransitionActiveQuery = `UPDATE workflow_transitions SET is_active = $4
	WHERE organization_id = $1 AND from_status_id = $2 AND to_status_id = $3`

const existsActiveTransitionQuery = `SELECT EXISTS (
	SELECT 1 FROM workflow_transitions
	WHERE organization_id = $1 AND from_status_id = $2 AND to_status_id = $3 AND is_active
)`

const listOutgoingQuery = `SELECT s.status_id, s.organization_id, s.name, s.display_name, s.color, s.order_index, s.is_active, s.is_default, s.created_at
	FROM workflow_transitions t
	JOIN task_statuses s ON s.status_id = t.to_status_id
	WHERE t.organization_id = $1 AND t.from_status_id = $2 AND t.is_active AND s.is_active
	ORDER BY s.order_index ASC, s.status_id ASC`

func (s *TransitionStore) Create(ctx context.Context, edge domain.TransitionEdge) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("transition store not initialized")
	}
	if err := edge.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		insertTransitionQuery,
		strings.TrimSpace(edge.ID),
		strings.TrimSpace(edge.OrganizationID),
		strings.TrimSpace(edge.FromStatusID),
		strings.TrimSpace(edge.ToStatusID),
		edge.IsActive,
		normalizeTime(edge.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEdge
		}
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

func (s *TransitionStore) Get(ctx context.Context, orgID, fromID, toID string) (domain.TransitionEdge, error) {
	if s == nil || s.db == nil {
		return domain.TransitionEdge{}, fmt.Errorf("transition store not initialized")
	}
	var edge domain.TransitionEdge
	row := s.db.QueryRowContext(
		ctx,
		selectTransitionQuery,
		strings.TrimSpace(orgID),
		strings.TrimSpace(fromID),
		strings.TrimSpace(toID),
	)
	if err := row.Scan(&edge.ID, &edge.OrganizationID, &edge.FromStatusID, &edge.ToStatusID, &edge.IsActive, &edge.CreatedAt); err != nil {
		return domain.TransitionEdge{}, handleNotFound(err)
	}
	return edge, nil
}

func (s *TransitionStore) SetActive(ctx context.Context, orgID, fromID, toID string, active bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("transition store not initialized")
	}
	res, err := s.db.ExecContext(
		ctx,
		setTransitionActiveQuery,
		strings.TrimSpace(orgID),
		strings.TrimSpace(fromID),
		strings.TrimSpace(toID),
		active,
	)
	if err != nil {
		return fmt.Errorf("set transition active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set transition active: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *TransitionStore) ExistsActive(ctx context.Context, orgID, fromID, toID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("transition store not initialized")
	}
	var exists bool
	row := s.db.QueryRowContext(
		ctx,
		existsActiveTransitionQuery,
		strings.TrimSpace(orgID),
		strings.TrimSpace(fromID),
		strings.TrimSpace(toID),
	)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("transition exists: %w", err)
	}
	return exists, nil
}

func (s *TransitionStore) ListOutgoing(ctx context.Context, orgID, fromID string) ([]domain.Status, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("transition store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, listOutgoingQuery, strings.TrimSpace(orgID), strings.TrimSpace(fromID))
	if err != nil {
		return nil, fmt.Errorf("list outgoing transitions: %w", err)
	}
	defer rows.Close()

	statuses := make([]domain.Status, 0)
	for rows.Next() {
		var (
			status domain.Status
			color  sql.NullString
		)
		if err := rows.Scan(
			&status.ID,
			&status.OrganizationID,
			&status.Name,
			&status.DisplayName,
			&color,
			&status.OrderIndex,
			&status.IsActive,
			&status.IsDefault,
			&status.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outgoing status: %w", err)
		}
		status.Color = strings.TrimSpace(color.String)
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outgoing transitions: %w", err)
	}
	return statuses, nil
}
