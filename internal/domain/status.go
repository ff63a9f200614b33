package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is a named state a task can occupy, scoped to one organization.
// Statuses are never physically deleted once referenced; deactivation is the
// only removal path.
type Status struct {
	ID             string
	OrganizationID string
	Name           string
	DisplayName    string
	Color          string
	OrderIndex     int
	IsActive       bool
	IsDefault      bool
	CreatedAt      time.Time
}

func (s Status) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("status id is required")
	}
	if strings.TrimSpace(s.OrganizationID) == "" {
		return errors.New("organization id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("status name is required")
	}
	if strings.TrimSpace(s.DisplayName) == "" {
		return errors.New("status display name is required")
	}
	if err := validateColor(s.Color); err != nil {
		return err
	}
	return nil
}

func validateColor(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil
	}
	if len(color) != 7 || color[0] != '#' {
		return fmt.Errorf("color must be a #RRGGBB hex string, got %q", color)
	}
	for _, c := range color[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return fmt.Errorf("color must be a #RRGGBB hex string, got %q", color)
		}
	}
	return nil
}
