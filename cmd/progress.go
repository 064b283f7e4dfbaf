package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"feditest/internal/testplan"
	"feditest/internal/testrun"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressReporter shows a spinner with the current position in the run.
// It can be paused while a driver asks the tester something.
type progressReporter struct {
	*testrun.Progress
	s *spinner.Spinner

	mu     sync.Mutex
	paused bool
}

func newProgressReporter(w io.Writer) *progressReporter {
	p := &progressReporter{
		Progress: testrun.NewProgress(),
		s:        spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w)),
	}
	p.s.PreUpdate = func(s *spinner.Spinner) {
		s.Suffix = progressLine(p.Snapshot())
	}
	return p
}

func (p *progressReporter) ReportStart(plan *testplan.TestPlan, transcript *testrun.Transcript) {
	p.Progress.ReportStart(plan, transcript)
	p.s.Start()
}

func (p *progressReporter) ReportEnd(transcript *testrun.Transcript) {
	p.Progress.ReportEnd(transcript)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	p.s.Stop()
}

// Pause stops the spinner if it is running.
func (p *progressReporter) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.s.Active() {
		p.s.Stop()
		p.paused = true
	}
}

// Resume restarts a spinner stopped by Pause.
func (p *progressReporter) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		p.s.Start()
	}
}

func progressLine(snap testrun.ProgressSnapshot) string {
	line := fmt.Sprintf(" [%d/%d]", snap.Summary.Total, snap.Planned)
	if snap.Session != "" {
		line += " " + snap.Session
	}
	if snap.Last != nil {
		line += fmt.Sprintf(": %s %s", snap.Last.Name, snap.Last.Outcome)
	}
	if bad := snap.Summary.Failed + snap.Summary.Errored; bad > 0 {
		line += fmt.Sprintf(" (%d not passed)", bad)
	}
	return line
}
