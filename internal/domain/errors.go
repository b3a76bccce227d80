package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Validation and
// window errors are always recoverable and never leave state mutated.

var (
	// Validation errors
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrInvalidWindow    = errors.New("window times must be HH:MM")

	// Window errors
	ErrWindowClosed = errors.New("task creation is only allowed during the creation window")

	// Lookup errors
	ErrTaskNotFound = errors.New("task not found")

	// Invariant violations
	ErrMissingDueDate = errors.New("pending task has no due date")
)
