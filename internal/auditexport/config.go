package auditexport

import (
	"fmt"
	"strings"

	"github.com/taskflow-labs/taskflow-go/internal/platform/env"
)

const (
	DestinationNone        = "none"
	DestinationObjectStore = "objectstore"
)

// Config controls where committed audit records are shipped.
type Config struct {
	Destination string
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Destination: env.String("AUDIT_EXPORT_DESTINATION", DestinationNone),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Destination)) {
	case "", DestinationNone, DestinationObjectStore:
		return nil
	default:
		return fmt.Errorf("unsupported audit export destination: %s", c.Destination)
	}
}

func (c Config) Enabled() bool {
	return strings.ToLower(strings.TrimSpace(c.Destination)) == DestinationObjectStore
}
