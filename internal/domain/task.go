package domain

import (
	"errors"
	"strings"
	"time"
)

// Task is the entity whose status the engine moves. CurrentStatusID is nil
// only before the first status assignment and must always resolve to a status
// of the same organization. StatusVersion is the optimistic lock counter
// compared-and-swapped on every status update.
type Task struct {
	ID              string
	OrganizationID  string
	Title           string
	CurrentStatusID *string
	StatusVersion   int64
	CreatedBy       string
	CreatedAt       time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(t.OrganizationID) == "" {
		return errors.New("organization id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	if strings.TrimSpace(t.CreatedBy) == "" {
		return errors.New("created by is required")
	}
	if t.CurrentStatusID != nil && strings.TrimSpace(*t.CurrentStatusID) == "" {
		return errors.New("current status id must be nil or non-empty")
	}
	return nil
}
