package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("equipment unavailable")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrAuth            = errors.New("authentication failed")
	ErrForbidden       = errors.New("forbidden")
	ErrBusy            = errors.New("resource busy, try again")
	ErrStorage         = errors.New("storage error")
	ErrPartialFailure  = errors.New("partial failure")
)

// ValidationError describes a rejected input field and the condition it must satisfy.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// QuantityError is returned when a reservation asks for a quantity outside [1, Available].
type QuantityError struct {
	Requested int
	Available int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d, got %d", e.Available, e.Requested)
}

func (e *QuantityError) Is(target error) bool { return target == ErrInvalidQuantity }

// StorageError hides the driver message from callers; Unwrap exposes it for logs.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return "storage failure during " + e.Op
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// PartialFailureError reports a two-step operation whose first step committed
// and whose second step did not. Operators must complete or compensate manually.
type PartialFailureError struct {
	Completed string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: %s completed, %s failed", e.Completed, e.Failed)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }
