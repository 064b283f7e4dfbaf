package testrun

import (
	"fmt"
	"io"
	"strings"

	"feditest/internal/testplan"
)

// TAPReporter streams the run as TAP version 14.
type TAPReporter struct {
	w        io.Writer
	planName string
	count    int
}

// NewTAPReporter creates a reporter writing to w.
func NewTAPReporter(w io.Writer) *TAPReporter {
	return &TAPReporter{w: w}
}

func (r *TAPReporter) ReportStart(plan *testplan.TestPlan, _ *Transcript) {
	r.planName = plan.String()
	r.count = 0
	fmt.Fprintln(r.w, "TAP version 14")
}

func (r *TAPReporter) ReportSessionStart(session *SessionTranscript) {
	constellation := orNone(session.ConstellationName)
	fmt.Fprintf(r.w, "# test plan: %s\n", r.planName)
	fmt.Fprintf(r.w, "# session: %s\n", session.Name)
	fmt.Fprintf(r.w, "# constellation: %s\n", constellation)
	fmt.Fprintf(r.w, "#   name: %s\n", constellation)
	fmt.Fprintln(r.w, "#   roles:")
	for _, role := range session.Roles {
		fmt.Fprintf(r.w, "#     - name: %s\n", role.Name)
		fmt.Fprintf(r.w, "#       driver: %s\n", orNone(role.Driver))
	}
}

func (r *TAPReporter) ReportTestResult(_ *SessionTranscript, result *TestResult) {
	r.count++
	switch result.Outcome {
	case OutcomePassed:
		fmt.Fprintf(r.w, "ok %d - %s\n", r.count, result.Name)
	case OutcomeSkipped:
		fmt.Fprintf(r.w, "ok %d - %s # SKIP %s\n", r.count, result.Name, result.SkipReason)
	default:
		fmt.Fprintf(r.w, "not ok %d - %s\n", r.count, result.Name)
		fmt.Fprintln(r.w, "  ---")
		fmt.Fprintln(r.w, "  problem: |")
		if result.Problem != nil {
			for _, line := range strings.Split(result.Problem.String(), "\n") {
				fmt.Fprintf(r.w, "    %s\n", line)
			}
		}
		fmt.Fprintln(r.w, "  ...")
	}
}

func (r *TAPReporter) ReportSessionResult(session *SessionTranscript) {
	if session.TeardownProblem == nil {
		return
	}
	for _, line := range strings.Split(session.TeardownProblem.String(), "\n") {
		fmt.Fprintf(r.w, "# teardown problem: %s\n", line)
	}
}

func (r *TAPReporter) ReportEnd(*Transcript) {
	fmt.Fprintf(r.w, "1..%d\n", r.count)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
