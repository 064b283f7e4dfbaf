package testrun

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of a single test.
type Outcome string

const (
	// OutcomePassed means the test body returned without error.
	OutcomePassed Outcome = "PASSED"
	// OutcomeFailed means a node behaved incorrectly.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeErrored means the test could not be carried out.
	OutcomeErrored Outcome = "ERROR"
	// OutcomeSkipped means the test was not run.
	OutcomeSkipped Outcome = "SKIPPED"
)

// SessionState tracks a session through its lifecycle.
type SessionState string

const (
	SessionPending     SessionState = "pending"
	SessionSettingUp   SessionState = "setting-up"
	SessionExecuting   SessionState = "executing"
	SessionTearingDown SessionState = "tearing-down"
	SessionDone        SessionState = "done"
	SessionSkipped     SessionState = "skipped"
)

// RunIDFormat is the layout of run ids.
const RunIDFormat = "2006-01-02T15:04:05.000000"

// Problem describes why a test failed or errored.
type Problem struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

func (p *Problem) String() string {
	return p.Type + ": " + p.Message
}

// NewProblem describes err. The type is the first error in the wrap chain
// that is not a plain fmt or errors.Join wrapper. Joined errors are followed
// through their first element.
func NewProblem(err error) *Problem {
	return &Problem{Type: typeName(causeOf(err)), Message: err.Error()}
}

func causeOf(err error) error {
	cur := err
	for cur != nil {
		if joined, ok := cur.(interface{ Unwrap() []error }); ok {
			if errs := joined.Unwrap(); len(errs) > 0 {
				cur = errs[0]
				continue
			}
			break
		}
		if !strings.HasPrefix(fmt.Sprintf("%T", cur), "*fmt.") {
			return cur
		}
		cur = errors.Unwrap(cur)
	}
	return err
}

func typeName(v interface{}) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}

// TestResult is the transcript entry of one test spec.
type TestResult struct {
	Name       string    `json:"name" yaml:"name"`
	Outcome    Outcome   `json:"result" yaml:"result"`
	Problem    *Problem  `json:"problem,omitempty" yaml:"problem,omitempty"`
	SkipReason string    `json:"skip,omitempty" yaml:"skip,omitempty"`
	Started    time.Time `json:"started" yaml:"started"`
	Ended      time.Time `json:"ended" yaml:"ended"`
}

// RoleTranscript records which node played a role.
type RoleTranscript struct {
	Name       string `json:"name" yaml:"name"`
	Driver     string `json:"driver" yaml:"driver"`
	App        string `json:"app,omitempty" yaml:"app,omitempty"`
	AppVersion string `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Hostname   string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
}

// SessionTranscript records one session.
type SessionTranscript struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	ConstellationName string            `json:"constellation,omitempty" yaml:"constellation,omitempty"`
	Roles             []*RoleTranscript `json:"roles" yaml:"roles"`
	State             SessionState      `json:"state" yaml:"state"`
	Started           time.Time         `json:"started" yaml:"started"`
	Ended             time.Time         `json:"ended" yaml:"ended"`
	SetupProblem      *Problem          `json:"setup_problem,omitempty" yaml:"setup_problem,omitempty"`
	TeardownProblem   *Problem          `json:"teardown_problem,omitempty" yaml:"teardown_problem,omitempty"`
	Results           []*TestResult     `json:"results" yaml:"results"`
}

func (s *SessionTranscript) append(r *TestResult) {
	s.Results = append(s.Results, r)
}

func (s *SessionTranscript) role(name string) *RoleTranscript {
	for _, r := range s.Roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Transcript records a whole run.
type Transcript struct {
	ID              string               `json:"id" yaml:"id"`
	Plan            string               `json:"plan" yaml:"plan"`
	FeditestVersion string               `json:"feditest_version" yaml:"feditest_version"`
	Started         time.Time            `json:"started" yaml:"started"`
	Ended           time.Time            `json:"ended" yaml:"ended"`
	Sessions        []*SessionTranscript `json:"sessions" yaml:"sessions"`
}

// Summary counts test outcomes.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errored" yaml:"errored"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// BuildSummary counts the outcomes of every test of the run.
func (t *Transcript) BuildSummary() Summary {
	var s Summary
	for _, session := range t.Sessions {
		for _, r := range session.Results {
			s.Total++
			switch r.Outcome {
			case OutcomePassed:
				s.Passed++
			case OutcomeFailed:
				s.Failed++
			case OutcomeErrored:
				s.Errored++
			case OutcomeSkipped:
				s.Skipped++
			}
		}
	}
	return s
}

// ExitCode returns 0 if nothing failed or errored and no session had
// trouble tearing down, and 1 otherwise.
func (t *Transcript) ExitCode() int {
	s := t.BuildSummary()
	if s.Failed > 0 || s.Errored > 0 {
		return 1
	}
	for _, session := range t.Sessions {
		if session.TeardownProblem != nil {
			return 1
		}
	}
	return 0
}

// Results returns every test result in run order.
func (t *Transcript) Results() []*TestResult {
	var results []*TestResult
	for _, session := range t.Sessions {
		results = append(results, session.Results...)
	}
	return results
}

func (s Summary) String() string {
	return fmt.Sprintf("%d tests: %d passed, %d failed, %d errored, %d skipped",
		s.Total, s.Passed, s.Failed, s.Errored, s.Skipped)
}
