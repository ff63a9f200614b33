package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuditRecord captures one realized status change. Records are immutable
// once written; the ordered sequence of records for a task is its complete
// history. RecordID is assigned by the store in insertion order and breaks
// ties between equal timestamps.
type AuditRecord struct {
	RecordID        int64
	TaskID          string
	OrganizationID  string
	FromStatusID    *string
	ToStatusID      string
	ActorID         string
	Note            string
	ChangedAt       time.Time
	IntegritySHA256 string
}

func (r AuditRecord) Validate() error {
	if strings.TrimSpace(r.TaskID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(r.OrganizationID) == "" {
		return errors.New("organization id is required")
	}
	if strings.TrimSpace(r.ToStatusID) == "" {
		return errors.New("to status id is required")
	}
	if strings.TrimSpace(r.ActorID) == "" {
		return errors.New("actor id is required")
	}
	if r.ChangedAt.IsZero() {
		return errors.New("changed_at is required")
	}
	if r.FromStatusID != nil && strings.TrimSpace(*r.FromStatusID) == "" {
		return errors.New("from status id must be nil or non-empty")
	}
	return nil
}

// ComputeIntegritySHA256 hashes the canonical JSON form of the record,
// excluding the store-assigned record id and the hash itself.
func ComputeIntegritySHA256(r AuditRecord) (string, error) {
	type integrityInput struct {
		TaskID         string  `json:"task_id"`
		OrganizationID string  `json:"organization_id"`
		FromStatusID   *string `json:"from_status_id"`
		ToStatusID     string  `json:"to_status_id"`
		ActorID        string  `json:"actor_id"`
		Note           string  `json:"note,omitempty"`
		ChangedAt      string  `json:"changed_at"`
	}
	in := integrityInput{
		TaskID:         r.TaskID,
		OrganizationID: r.OrganizationID,
		FromStatusID:   r.FromStatusID,
		ToStatusID:     r.ToStatusID,
		ActorID:        r.ActorID,
		Note:           r.Note,
		ChangedAt:      r.ChangedAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal integrity input: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
