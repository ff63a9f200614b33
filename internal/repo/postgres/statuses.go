package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
	"github.com/taskflow-labs/taskflow-go/internal/repo"
)

type StatusStore struct {
	db DB
}

func NewStatusStore(db DB) *StatusStore {
	if db == nil {
		return nil
	}
	return &StatusStore{db: db}
}

const insertStatusQuery = `INSERT INTO task_statuses (
	status_id,
	organization_id,
	name,
	display_name,
	color,
	order_index,
	is_active,
	is_default,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

const selectStatusQuery = `SELECT status_id, organization_id, name, display_name, color, order_index, is_active, is_default, created_at
	FROM task_statuses
	WHERE organization_id = $1 AND status_id = $2`

const selectDefaultStatusQuery = `SELECT status_id, organization_id, name, display_name, color, order_index, is_active, is_default, created_at
	FROM task_statuses
	WHERE organization_id = $1 AND is_default`

const listActiveStatusesQuery = `SELECT status_id, organization_id, name, display_name, color, order_index, is_active, is_default, created_at
	FROM task_statuses
	WHERE organization_id = $1 AND is_active
	ORDER BY order_index ASC, status_id ASC`

const clearDefaultStatusQuery = `UPDATE task_statuses SET is_default = FALSE
	WHERE organization_id = $1 AND is_default`

const setStatusActiveQuery = `UPDATE task_statuses SET is_active = $3
	WHERE organization_id = $1 AND status_id = $2`

func (s *StatusStore) Create(ctx context.Context, status domain.Status) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("status store not initialized")
	}
	if err := status.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		insertStatusQuery,
		strings.TrimSpace(status.ID),
		strings.TrimSpace(status.OrganizationID),
		strings.TrimSpace(status.Name),
		strings.TrimSpace(status.DisplayName),
		nullIfEmpty(status.Color),
		status.OrderIndex,
		status.IsActive,
		status.IsDefault,
		normalizeTime(status.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

func (s *StatusStore) Get(ctx context.Context, orgID, id string) (domain.Status, error) {
	if s == nil || s.db == nil {
		return domain.Status{}, fmt.Errorf("status store not initialized")
	}
	row := s.db.QueryRowContext(ctx, selectStatusQuery, strings.TrimSpace(orgID), strings.TrimSpace(id))
	return scanStatusRow(row)
}

func (s *StatusStore) GetDefault(ctx context.Context, orgID string) (domain.Status, error) {
	if s == nil || s.db == nil {
		return domain.Status{}, fmt.Errorf("status store not initialized")
	}
	row := s.db.QueryRowContext(ctx, selectDefaultStatusQuery, strings.TrimSpace(orgID))
	return scanStatusRow(row)
}

func (s *StatusStore) ListActive(ctx context.Context, orgID string) ([]domain.Status, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("status store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, listActiveStatusesQuery, strings.TrimSpace(orgID))
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]domain.Status, 0)
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

func (s *StatusStore) ClearDefault(ctx context.Context, orgID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("status store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, clearDefaultStatusQuery, strings.TrimSpace(orgID)); err != nil {
		return fmt.Errorf("clear default status: %w", err)
	}
	return nil
}

func (s *StatusStore) SetActive(ctx context.Context, orgID, id string, active bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("status store not initialized")
	}
	res, err := s.db.ExecContext(ctx, setStatusActiveQuery, strings.TrimSpace(orgID), strings.TrimSpace(id), active)
	if err != nil {
		return fmt.Errorf("set status active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status active: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatusRow(row scanner) (domain.Status, error) {
	status, err := scanStatus(row)
	if err != nil {
		return domain.Status{}, handleNotFound(err)
	}
	return status, nil
}

func scanStatus(row scanner) (domain.Status, error) {
	var (
		status domain.Status
		color  sql.NullString
	)
	if err := row.Scan(
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
		return domain.Status{}, err
	}
	status.Color = strings.TrimSpace(color.String)
	return status, nil
}
