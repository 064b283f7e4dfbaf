package testrun

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"

	"feditest/internal/testplan"
)

var (
	passedColor  = color.New(color.FgGreen)
	failedColor  = color.New(color.FgRed, color.Bold)
	erroredColor = color.New(color.FgMagenta, color.Bold)
	skippedColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgHiCyan, color.Bold)
)

// ConsoleReporter prints a human readable account of the run.
type ConsoleReporter struct {
	w        io.Writer
	verbose  bool
	planPath string
}

// NewConsoleReporter creates a reporter writing to w. If planPath is set,
// the final summary suggests a command line that re-runs the tests that
// did not pass.
func NewConsoleReporter(w io.Writer, verbose bool, planPath string) *ConsoleReporter {
	return &ConsoleReporter{w: w, verbose: verbose, planPath: planPath}
}

func (r *ConsoleReporter) ReportStart(plan *testplan.TestPlan, transcript *Transcript) {
	fmt.Fprintf(r.w, "🧪 Running test plan %s (run %s)\n", headerColor.Sprint(plan.String()), transcript.ID)
	if r.verbose {
		fmt.Fprintf(r.w, "   • Sessions: %d\n", len(plan.Sessions))
		fmt.Fprintf(r.w, "   • feditest version: %s\n", transcript.FeditestVersion)
	}
}

func (r *ConsoleReporter) ReportSessionStart(session *SessionTranscript) {
	fmt.Fprintf(r.w, "\n🎯 Session %s\n", headerColor.Sprint(session.Name))
	if r.verbose {
		for _, role := range session.Roles {
			fmt.Fprintf(r.w, "   • %s: %s\n", role.Name, orNone(role.Driver))
		}
	}
}

func (r *ConsoleReporter) ReportTestResult(_ *SessionTranscript, result *TestResult) {
	fmt.Fprintf(r.w, "   %s %s", resultSymbol(result.Outcome), result.Name)
	switch result.Outcome {
	case OutcomeSkipped:
		fmt.Fprintf(r.w, " %s\n", skippedColor.Sprintf("(skipped: %s)", result.SkipReason))
	case OutcomeFailed, OutcomeErrored:
		fmt.Fprintf(r.w, " %s\n", outcomeColor(result.Outcome).Sprint(result.Outcome))
		if result.Problem != nil {
			fmt.Fprintf(r.w, "%s\n", indent(result.Problem.String(), "      "))
		}
	default:
		fmt.Fprintf(r.w, " (%v)\n", result.Ended.Sub(result.Started).Round(time.Millisecond))
	}
}

func (r *ConsoleReporter) ReportSessionResult(session *SessionTranscript) {
	if session.State == SessionSkipped {
		fmt.Fprintf(r.w, "   %s\n", skippedColor.Sprint("no tests, session skipped"))
	}
	if session.TeardownProblem != nil {
		fmt.Fprintf(r.w, "   ⚠️  Teardown: %s\n", session.TeardownProblem)
	}
}

func (r *ConsoleReporter) ReportEnd(transcript *Transcript) {
	s := transcript.BuildSummary()
	fmt.Fprintf(r.w, "\n🏁 Test run %s complete\n", transcript.ID)
	fmt.Fprintf(r.w, "⏱️  Duration: %v\n", transcript.Ended.Sub(transcript.Started).Round(time.Millisecond))
	fmt.Fprintf(r.w, "📊 Results:\n")
	fmt.Fprintf(r.w, "   ✅ Passed: %d\n", s.Passed)
	if s.Failed > 0 {
		fmt.Fprintf(r.w, "   ❌ Failed: %d\n", s.Failed)
	}
	if s.Errored > 0 {
		fmt.Fprintf(r.w, "   💥 Errors: %d\n", s.Errored)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(r.w, "   ⏭️  Skipped: %d\n", s.Skipped)
	}
	fmt.Fprintf(r.w, "   📈 Total: %d\n", s.Total)

	if transcript.ExitCode() == 0 {
		fmt.Fprintf(r.w, "\n%s\n", passedColor.Sprint("🎉 All tests passed!"))
		return
	}
	fmt.Fprintf(r.w, "\n%s\n", failedColor.Sprint("💔 Some tests failed"))
	if hint := r.rerunCommand(transcript); hint != "" {
		fmt.Fprintf(r.w, "To re-run the tests that did not pass:\n   %s\n", hint)
	}
}

// rerunCommand builds a shell command line running only the failed and
// errored tests of the transcript.
func (r *ConsoleReporter) rerunCommand(transcript *Transcript) string {
	if r.planPath == "" {
		return ""
	}
	seen := map[string]bool{}
	var names []string
	for _, result := range transcript.Results() {
		if result.Outcome != OutcomeFailed && result.Outcome != OutcomeErrored {
			continue
		}
		if !seen[result.Name] {
			seen[result.Name] = true
			names = append(names, regexp.QuoteMeta(result.Name))
		}
	}
	if len(names) == 0 {
		return ""
	}
	args := []string{
		"feditest", "run",
		"--testplan", shellescape.Quote(r.planPath),
		"--filter", shellescape.Quote("^(" + strings.Join(names, "|") + ")$"),
	}
	return strings.Join(args, " ")
}

func resultSymbol(outcome Outcome) string {
	switch outcome {
	case OutcomePassed:
		return "✅"
	case OutcomeFailed:
		return "❌"
	case OutcomeSkipped:
		return "⏭️"
	case OutcomeErrored:
		return "💥"
	default:
		return "❓"
	}
}

func outcomeColor(outcome Outcome) *color.Color {
	switch outcome {
	case OutcomePassed:
		return passedColor
	case OutcomeFailed:
		return failedColor
	case OutcomeErrored:
		return erroredColor
	default:
		return skippedColor
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
