package auditexport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// ObjectStoreExporter writes each committed audit record as a standalone JSON
// object, keyed by task and insertion-order record id so the bucket listing
// mirrors the append-only log.
type ObjectStoreExporter struct {
	client *minio.Client
	bucket string
}

func NewObjectStoreExporter(client *minio.Client, bucket string) *ObjectStoreExporter {
	if client == nil || bucket == "" {
		return nil
	}
	return &ObjectStoreExporter{client: client, bucket: bucket}
}

func (e *ObjectStoreExporter) Export(ctx context.Context, record domain.AuditRecord) error {
	if e == nil || e.client == nil {
		return errors.New("object store exporter not initialized")
	}
	raw, err := json.Marshal(exportRecordFromDomain(record))
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	key := fmt.Sprintf("tasks/%s/%012d.json", record.TaskID, record.RecordID)
	_, err = e.client.PutObject(
		ctx,
		e.bucket,
		key,
		bytes.NewReader(raw),
		int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put audit record %s: %w", key, err)
	}
	return nil
}
