/*
errors.go - Centralized error types for the game core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every mutator that rejects an intent returns one of these and leaves
  state exactly as it was.

ERROR CATEGORIES:
  1. Not-found errors - unknown producer, upgrade, worker, save
  2. Validation errors - affordability, ownership, malformed counts
  3. Catalog errors - static definitions that contradict themselves

USAGE:
  Adapters map categories to their own transport codes:

    if game.IsNotFound(err) {
        writeError(w, http.StatusNotFound, ...)
    }

SEE ALSO:
  - game.go: mutators returning these errors
  - api/handlers.go: HTTP status mapping
*/
package game

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownProducer is returned when an itemId or producer id is not
	// offered by the shop or not owned.
	ErrUnknownProducer = errors.New("unknown producer")

	// ErrUnknownUpgrade is returned when an upgrade id is not in the shop snapshot.
	ErrUnknownUpgrade = errors.New("unknown upgrade")

	// ErrUnknownWorker is returned when a worker id does not exist.
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrSaveNotFound is returned when a named save slot does not exist.
	ErrSaveNotFound = errors.New("save not found")

	// ErrInsufficientBalance is returned when a purchase costs more than the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyOwned is returned when buying an upgrade that is already owned.
	ErrAlreadyOwned = errors.New("already owned")

	// ErrInvalidCount is returned for non-positive or out-of-range quantities.
	ErrInvalidCount = errors.New("invalid count")

	// ErrInvalidSetting is returned for unknown settings or UI values.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrInvalidModifier is returned for malformed modifiers.
	ErrInvalidModifier = errors.New("invalid modifier")

	// ErrInvalidSave is returned when a save aggregate cannot be loaded.
	ErrInvalidSave = errors.New("invalid save")

	// ErrInvalidCatalog is returned when catalog definitions are inconsistent.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrSchedulerStarted is returned when starting a running scheduler.
	ErrSchedulerStarted = errors.New("scheduler already started")

	// ErrSchedulerStopped is returned when starting a scheduler after Stop.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	Available string
	Requested string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// CatalogError names the catalog entry that failed validation.
type CatalogError struct {
	Kind   string // "producer", "upgrade", "weather"
	ID     string
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("invalid catalog: %s %q: %s", e.Kind, e.ID, e.Reason)
}

func (e *CatalogError) Unwrap() error {
	return ErrInvalidCatalog
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownProducer) ||
		errors.Is(err, ErrUnknownUpgrade) ||
		errors.Is(err, ErrUnknownWorker) ||
		errors.Is(err, ErrSaveNotFound)
}

// IsConflict returns true if the intent is well-formed but the current
// state does not allow it.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadyOwned)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsConflict(err) ||
		errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrInvalidSetting) ||
		errors.Is(err, ErrInvalidModifier) ||
		errors.Is(err, ErrInvalidSave)
}
