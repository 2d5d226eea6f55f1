package services

import (
	"errors"
	"fmt"

	"fleetdesk/internal/repositories/interfaces"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPrecondition    = errors.New("precondition failed")
	ErrPolicyViolation = errors.New("policy violation")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

func notFound(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// storeError turns a store miss into ErrNotFound and wraps anything else.
func storeError(err error, resource, id string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return notFound(resource, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", resource, id, err)
}
