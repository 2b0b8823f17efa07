package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lambda-tester/pkg/lambda"
	"lambda-tester/pkg/leak"
)

// Common runner error types
var (
	ErrNoHandler       = errors.New("no handler specified")
	ErrOutcomeMismatch = errors.New("unexpected handler outcome")
	ErrHandlerTimeout  = errors.New("handler timed out")
	ErrHandleLeak      = errors.New("potential handle leakage detected")
)

// FailError reports that the handler finished through a different channel,
// or with a different polarity, than expected.
type FailError struct {
	Message string
	Cause   error // error carried by the handler, if any
	Result  any   // result carried by the handler, if any
}

func newFailError(message string, cause any, result any) *FailError {
	return &FailError{
		Message: message,
		Cause:   lambda.ToError(cause),
		Result:  result,
	}
}

func (e *FailError) Error() string {
	return e.Message
}

func (e *FailError) Unwrap() error {
	return e.Cause
}

func (e *FailError) Is(target error) bool {
	return target == ErrOutcomeMismatch
}

// TimeoutError reports a completion signal that arrived after the timeout.
type TimeoutError struct {
	ExecTime time.Duration
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("handler timed out - execution time: %dms, timeout after: %dms",
		e.ExecTime.Milliseconds(), e.Timeout.Milliseconds())
}

func (e *TimeoutError) Unwrap() error {
	return ErrHandlerTimeout
}

// LeakError lists resources opened by the handler and still open after it
// completed.
type LeakError struct {
	Handles []leak.Handle
}

func (e *LeakError) Error() string {
	return "Potential handle leakage detected"
}

func (e *LeakError) Unwrap() error {
	return ErrHandleLeak
}

// Details renders one line per leaked handle.
func (e *LeakError) Details() string {
	lines := make([]string, 0, len(e.Handles))
	for _, h := range e.Handles {
		lines = append(lines, h.String())
	}
	return strings.Join(lines, "\n")
}

// IsTimeout returns true if the run failed the timeout check
func IsTimeout(err error) bool {
	return errors.Is(err, ErrHandlerTimeout)
}

// IsLeak returns true if the run left handles open
func IsLeak(err error) bool {
	return errors.Is(err, ErrHandleLeak)
}

// IsMismatch returns true if the handler finished in an unexpected way
func IsMismatch(err error) bool {
	var failErr *FailError
	return errors.As(err, &failErr)
}
