package auditexport

import (
	"context"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// Exporter ships committed audit records to external systems. Export runs
// after the transition has committed and must never affect its outcome.
type Exporter interface {
	Export(ctx context.Context, record domain.AuditRecord) error
}

// NoopExporter is the default sink when no destination is configured.
type NoopExporter struct{}

func (NoopExporter) Export(ctx context.Context, record domain.AuditRecord) error {
	return nil
}
