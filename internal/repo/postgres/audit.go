package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// AuditLogStore only ever inserts; there is no update or delete path.
type AuditLogStore struct {
	db DB
}

func NewAuditLogStore(db DB) *AuditLogStore {
	if db == nil {
		return nil
	}
	return &AuditLogStore{db: db}
}

const insertAuditRecordQuery = `INSERT INTO task_status_audit (
	task_id,
	organization_id,
	from_status_id,
	to_status_id,
	actor_id,
	note,
	changed_at,
	integrity_sha256
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING record_id`

const selectHistoryQuery = `SELECT record_id, task_id, organization_id, from_status_id, to_status_id, actor_id, note, changed_at, integrity_sha256
	FROM task_status_audit
	WHERE task_id = $1
	ORDER BY changed_at ASC, record_id ASC`

func (s *AuditLogStore) Append(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	if s == nil || s.db == nil {
		return domain.AuditRecord{}, fmt.Errorf("audit store not initialized")
	}
	record.ChangedAt = normalizeTime(record.ChangedAt)
	if err := record.Validate(); err != nil {
		return domain.AuditRecord{}, err
	}
	if strings.TrimSpace(record.IntegritySHA256) == "" {
		integrity, err := domain.ComputeIntegritySHA256(record)
		if err != nil {
			return domain.AuditRecord{}, err
		}
		record.IntegritySHA256 = integrity
	}

	row := s.db.QueryRowContext(
		ctx,
		insertAuditRecordQuery,
		strings.TrimSpace(record.TaskID),
		strings.TrimSpace(record.OrganizationID),
		nullIfNilOrEmpty(record.FromStatusID),
		strings.TrimSpace(record.ToStatusID),
		strings.TrimSpace(record.ActorID),
		nullIfEmpty(record.Note),
		record.ChangedAt,
		record.IntegritySHA256,
	)
	if err := row.Scan(&record.RecordID); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("append audit record: %w", err)
	}
	return record, nil
}

func (s *AuditLogStore) History(ctx context.Context, taskID string) ([]domain.AuditRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("audit store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, selectHistoryQuery, strings.TrimSpace(taskID))
	if err != nil {
		return nil, fmt.Errorf("list audit history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AuditRecord, 0)
	for rows.Next() {
		var (
			record domain.AuditRecord
			from   sql.NullString
			note   sql.NullString
		)
		if err := rows.Scan(
			&record.RecordID,
			&record.TaskID,
			&record.OrganizationID,
			&from,
			&record.ToStatusID,
			&record.ActorID,
			&note,
			&record.ChangedAt,
			&record.IntegritySHA256,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		record.FromStatusID = stringPtr(from)
		record.Note = strings.TrimSpace(note.String)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit history: %w", err)
	}
	return records, nil
}
