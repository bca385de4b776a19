package booking

import "fmt"

// ValidationError covers malformed input (bad dates, unknown actions).
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(msg string) error {
	return &ValidationError{Code: "validationError", Message: msg}
}

// NotFoundError covers missing records and records the caller does not own.
// Ownership failures deliberately look identical to absence.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Code: "notFoundError", Message: msg}
}

// ConflictError covers contested state: an occupied slot, an already-paid
// booking, an illegal lifecycle transition.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewConflictError(msg string) error {
	return &ConflictError{Code: "conflictError", Message: msg}
}

// CancellationWindowError is the 24h cancellation guard.
type CancellationWindowError struct {
	Code    string
	Message string
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCancellationWindowError(msg string) error {
	return &CancellationWindowError{Code: "cancellationWindowError", Message: msg}
}
