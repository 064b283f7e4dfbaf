package nodedriver

import (
	"errors"
	"fmt"
	"time"
)

// ErrDriverNotFound is returned when a plan names an unregistered driver.
var ErrDriverNotFound = errors.New("driver not found")

// NotImplementedByNodeError reports that a node cannot perform an
// operation, typically because it lacks the capability a test needs.
type NotImplementedByNodeError struct {
	Node      Node
	Operation string
}

func (e *NotImplementedByNodeError) Error() string {
	role := "<nil>"
	if e.Node != nil {
		role = e.Node.RoleName()
	}
	return fmt.Sprintf("Not implemented on node %s: %s", role, e.Operation)
}

// NewNotImplementedByNodeError creates a NotImplementedByNodeError.
func NewNotImplementedByNodeError(node Node, operation string) *NotImplementedByNodeError {
	return &NotImplementedByNodeError{Node: node, Operation: operation}
}

// IsNotImplementedByNode checks whether err is a NotImplementedByNodeError.
func IsNotImplementedByNode(err error) bool {
	var target *NotImplementedByNodeError
	return errors.As(err, &target)
}

// TimeoutError is returned by PollUntil when the condition never held.
type TimeoutError struct {
	Msg    string
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Waited, e.Msg)
}

// ForeignNodeError is returned when a driver is asked to unprovision a
// node it did not provision.
type ForeignNodeError struct {
	Driver string
	Role   string
}

func (e *ForeignNodeError) Error() string {
	return fmt.Sprintf("node %s does not belong to driver %s", e.Role, e.Driver)
}

// NoAccountError is returned when no account can be found for a role.
type NoAccountError struct {
	Role        string
	NonExisting bool
}

func (e *NoAccountError) Error() string {
	if e.NonExisting {
		return fmt.Sprintf("no non-existing account available for role %q", e.Role)
	}
	return fmt.Sprintf("no account available for role %q", e.Role)
}
