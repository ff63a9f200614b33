package domain

import (
	"errors"
	"strings"
	"time"
)

// TransitionEdge is an organization-authored permission for a task to move
// from one status to another. The edge set forms a directed graph; cycles are
// valid workflows. At most one edge exists per ordered pair per organization.
type TransitionEdge struct {
	ID             string
	OrganizationID string
	FromStatusID   string
	ToStatusID     string
	IsActive       bool
	CreatedAt      time.Time
}

func (e TransitionEdge) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("transition id is required")
	}
	if strings.TrimSpace(e.OrganizationID) == "" {
		return errors.New("organization id is required")
	}
	if strings.TrimSpace(e.FromStatusID) == "" {
		return errors.New("from status id is required")
	}
	if strings.TrimSpace(e.ToStatusID) == "" {
		return errors.New("to status id is required")
	}
	return nil
}
