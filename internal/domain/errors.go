package domain

import "errors"

// Validation errors are deterministic for a given input and store state and
// are surfaced to the caller unchanged. Only ErrConcurrentModification may be
// retried by the engine itself; ErrPersistence is retryable by the caller.
var (
	ErrDuplicateName          = errors.New("status name already exists in organization")
	ErrDuplicateEdge          = errors.New("transition edge already exists")
	ErrCrossOrgReference      = errors.New("status does not belong to organization")
	ErrTaskNotFound           = errors.New("task not found")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrInactiveStatus         = errors.New("status is inactive")
	ErrIllegalTransition      = errors.New("transition not allowed from current status")
	ErrConcurrentModification = errors.New("task was modified concurrently")
	ErrPersistence            = errors.New("persistence failure")
)
