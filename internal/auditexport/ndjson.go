package auditexport

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// NDJSONExporter writes audit records as newline-delimited JSON. It backs the
// history export endpoint, streaming straight to the response body.
type NDJSONExporter struct {
	enc *json.Encoder
}

func NewNDJSONExporter(w io.Writer) *NDJSONExporter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	return &NDJSONExporter{enc: enc}
}

func (e *NDJSONExporter) Export(ctx context.Context, record domain.AuditRecord) error {
	return e.enc.Encode(exportRecordFromDomain(record))
}

type exportRecord struct {
	RecordID        int64   `json:"record_id"`
	TaskID          string  `json:"task_id"`
	OrganizationID  string  `json:"organization_id"`
	FromStatusID    *string `json:"from_status_id"`
	ToStatusID      string  `json:"to_status_id"`
	ActorID         string  `json:"actor_id"`
	Note            string  `json:"note,omitempty"`
	ChangedAt       string  `json:"changed_at"`
	IntegritySHA256 string  `json:"integrity_sha256"`
}

func exportRecordFromDomain(record domain.AuditRecord) exportRecord {
	return exportRecord{
		RecordID:        record.RecordID,
		TaskID:          record.TaskID,
		OrganizationID:  record.OrganizationID,
		FromStatusID:    record.FromStatusID,
		ToStatusID:      record.ToStatusID,
		ActorID:         record.ActorID,
		Note:            record.Note,
		ChangedAt:       record.ChangedAt.UTC().Format(time.RFC3339Nano),
		IntegritySHA256: record.IntegritySHA256,
	}
}
