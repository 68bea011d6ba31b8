package native

import "fmt"

// Error is a failed engine operation.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("native %s: %s", e.Op, e.Message)
}

func errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Message: fmt.Sprintf(format, args...)}
}
