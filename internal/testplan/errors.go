package testplan

import (
	"errors"
	"fmt"
	"strings"
)

// Error is raised when a TestPlan is defined incorrectly or incompletely.
// It locates the problem within the plan.
type Error struct {
	Session  int    `json:"session"` // -1 if the problem is not tied to a session
	Test     int    `json:"test"`    // -1 if the problem is not tied to a test spec
	TestName string `json:"testName,omitempty"`
	Role     string `json:"role,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Location renders the context prefix, e.g. `TestPlanSession 0: Role server: `.
func (e *Error) Location() string {
	var b strings.Builder
	if e.Session >= 0 {
		fmt.Fprintf(&b, "TestPlanSession %d: ", e.Session)
	}
	if e.Role != "" {
		fmt.Fprintf(&b, "Role %s: ", e.Role)
	}
	if e.Test >= 0 {
		fmt.Fprintf(&b, "Test (index %d): ", e.Test)
	}
	if e.TestName != "" {
		fmt.Fprintf(&b, "Test %q: ", e.TestName)
	}
	return b.String()
}

func (e *Error) Error() string {
	return "TestPlan defined insufficiently: " + e.Location() + e.Message
}

// ErrorCollection holds every problem found in a plan.
type ErrorCollection struct {
	Errors []*Error `json:"errors"`
}

func (ec *ErrorCollection) Error() string {
	switch len(ec.Errors) {
	case 0:
		return "no test plan errors"
	case 1:
		return ec.Errors[0].Error()
	default:
		return fmt.Sprintf("%d test plan errors: %s (and %d more)",
			len(ec.Errors), ec.Errors[0].Error(), len(ec.Errors)-1)
	}
}

// HasErrors returns true if there are any errors in the collection.
func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.Errors) > 0
}

// Count returns the number of errors in the collection.
func (ec *ErrorCollection) Count() int {
	return len(ec.Errors)
}

// Add adds an error to the collection.
func (ec *ErrorCollection) Add(err *Error) {
	ec.Errors = append(ec.Errors, err)
}

// BySession returns the errors located in the given session.
func (ec *ErrorCollection) BySession(index int) []*Error {
	var filtered []*Error
	for _, err := range ec.Errors {
		if err.Session == index {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// location accumulates context while walking a plan.
type location struct {
	session  int
	test     int
	testName string
	role     string
}

func root() location {
	return location{session: -1, test: -1}
}

func (l location) inSession(index int) location {
	l.session = index
	return l
}

func (l location) inTest(index int) location {
	l.test = index
	return l
}

func (l location) forTest(name string) location {
	l.testName = name
	return l
}

func (l location) inRole(role string) location {
	l.role = role
	return l
}

func (l location) errorf(field, format string, args ...interface{}) *Error {
	return &Error{
		Session:  l.session,
		Test:     l.test,
		TestName: l.testName,
		Role:     l.role,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// relocate places an error produced without context at this location.
func (l location) relocate(err error) *Error {
	var planErr *Error
	if errors.As(err, &planErr) {
		return l.errorf(planErr.Field, "%s", planErr.Message)
	}
	return l.errorf("", "%s", err.Error())
}
