package registry

import (
	"errors"
	"fmt"
)

// Failure is returned by a test body when the node under test behaved
// incorrectly. Any other error returned by a body means the test could
// not be carried out.
type Failure struct {
	Msg   string
	Cause error
}

func (f *Failure) Error() string {
	return f.Msg
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Fail returns a Failure with the given message.
func Fail(msg string) error {
	return &Failure{Msg: msg}
}

// Failf returns a Failure with a formatted message. A %w verb records the
// wrapped error as the cause.
func Failf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	return &Failure{Msg: err.Error(), Cause: errors.Unwrap(err)}
}

// Assert returns nil if cond holds and a Failure otherwise.
func Assert(cond bool, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return Failf(format, args...)
}

// AssertEqual returns a Failure unless got equals want.
func AssertEqual[T comparable](got, want T, what string) error {
	if got == want {
		return nil
	}
	return &Failure{Msg: fmt.Sprintf("%s: expected %v, got %v", what, want, got)}
}

// IsFailure reports whether err is, or wraps, a Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
