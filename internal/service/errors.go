package service

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers entities that are absent or belong to a
	// different branch than the caller's scope. Branch mismatch is
	// reported identically to absence.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers malformed or policy-violating input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStatus is returned for status values outside the enum.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrStoreUnavailable means the persistent store failed to
	// complete the operation. Never retried inside the engines.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// wrapStoreErr translates a store failure into the engine taxonomy.
func wrapStoreErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", entity, ErrStoreUnavailable, err)
}
