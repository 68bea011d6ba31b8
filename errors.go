package typedann

import (
	"errors"
	"fmt"

	"github.com/hupe1980/typedann/internal/native"
)

var (
	// ErrNative matches every failure reported by the engine.
	ErrNative = errors.New("native operation failed")

	// ErrInvalidCount is returned when a search count is negative.
	ErrInvalidCount = errors.New("count must not be negative")

	// ErrNilPredicate is returned by FilteredSearch for a nil predicate.
	ErrNilPredicate = errors.New("predicate must not be nil")

	// ErrClosed is returned by an index after Close or after ChangeMetric
	// consumed it.
	ErrClosed = errors.New("index is closed")
)

// NativeError carries the engine's diagnostic for a failed operation.
//
// It matches ErrNative via errors.Is.
type NativeError struct {
	Op      string
	Message string
	cause   error
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("native operation failed: %s: %s", e.Op, e.Message)
}

func (e *NativeError) Is(target error) bool { return target == ErrNative }

func (e *NativeError) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a vector whose length does not match the
// index shape.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrConfigMismatch indicates persisted index data whose configuration is
// incompatible with the typed index loading it.
type ErrConfigMismatch struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ErrConfigMismatch) Error() string {
	return fmt.Sprintf("config mismatch: %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ne *native.Error
	if errors.As(err, &ne) {
		return &NativeError{Op: ne.Op, Message: ne.Message, cause: err}
	}

	return err
}
