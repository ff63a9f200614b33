package auditexport

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

func TestNDJSONExporter_OneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewNDJSONExporter(&buf)

	from := "status-a"
	records := []domain.AuditRecord{
		{RecordID: 1, TaskID: "task-1", OrganizationID: "org-1", ToStatusID: "status-a", ActorID: "u1", ChangedAt: time.Unix(1700000000, 0).UTC()},
		{RecordID: 2, TaskID: "task-1", OrganizationID: "org-1", FromStatusID: &from, ToStatusID: "status-b", ActorID: "u1", Note: "review done", ChangedAt: time.Unix(1700000060, 0).UTC()},
	}
	for _, record := range records {
		if err := exporter.Export(context.Background(), record); err != nil {
			t.Fatalf("Export() err=%v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"from_status_id":null`) {
		t.Fatalf("expected explicit null from_status_id on first record: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"note":"review done"`) {
		t.Fatalf("expected note on second record: %s", lines[1])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Destination: "objectstore"}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	if err := (Config{Destination: "kafka"}).Validate(); err == nil {
		t.Fatalf("expected error for unsupported destination")
	}
	if (Config{Destination: "none"}).Enabled() {
		t.Fatalf("none destination must not be enabled")
	}
}
