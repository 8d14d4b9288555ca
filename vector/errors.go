package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when no record exists for the id.
	ErrNotFound = errors.New("vector: record not found")

	// ErrStoreUnavailable wraps failures to reach or use the durable backend.
	ErrStoreUnavailable = errors.New("vector: store unavailable")

	// ErrInvalidRecord is returned for records that can never be stored.
	ErrInvalidRecord = errors.New("vector: invalid record")
)

// Unavailable wraps a backend failure with ErrStoreUnavailable. It returns
// nil for a nil error and leaves errors already classified untouched.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	var dm *DimensionMismatchError
	if errors.As(err, &dm) {
		return err
	}
	var cr *CorruptRecordError
	if errors.As(err, &cr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// DimensionMismatchError indicates a vector whose length differs from the
// store's pinned dimensionality.
type DimensionMismatchError struct {
	ID       string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector: dimension mismatch for %q: expected %d, got %d", e.ID, e.Expected, e.Actual)
}

// CorruptRecordError indicates a stored record that cannot be decoded back
// into a vector of the pinned shape.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type CorruptRecordError struct {
	ID    string
	cause error
}

// NewCorruptRecordError builds a CorruptRecordError for id.
func NewCorruptRecordError(id string, cause error) *CorruptRecordError {
	return &CorruptRecordError{ID: id, cause: cause}
}

func (e *CorruptRecordError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("vector: corrupt record %q", e.ID)
	}
	return fmt.Sprintf("vector: corrupt record %q: %v", e.ID, e.cause)
}

func (e *CorruptRecordError) Unwrap() error { return e.cause }
