package async

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is the sentinel all timeout failures unwrap to.
// Use errors.Is(err, async.ErrTimeout) to detect them.
var ErrTimeout = errors.New("operation timed out")

// TimeoutError carries the caller-supplied message and the deadline that was
// exceeded. It unwraps to ErrTimeout.
type TimeoutError struct {
	Message string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("operation timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("%s (after %s)", e.Message, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

func newTimeoutError(message string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Message: message, Timeout: timeout}
}
