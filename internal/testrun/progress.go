package testrun

import (
	"sync"

	"feditest/internal/testplan"
)

// Progress is a Reporter that tracks how far a run has got. It may be
// queried from other goroutines while the run is going on.
type Progress struct {
	mu      sync.RWMutex
	planned int
	session string
	last    *TestResult
	summary Summary
}

// ProgressSnapshot is the state of a run at one point in time.
type ProgressSnapshot struct {
	Planned int
	Session string
	Last    *TestResult
	Summary Summary
}

// NewProgress creates a tracker for a run that has not started yet.
func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) ReportStart(plan *testplan.TestPlan, _ *Transcript) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.planned = 0
	for _, session := range plan.Sessions {
		if session != nil {
			p.planned += len(session.Tests)
		}
	}
	p.session = ""
	p.last = nil
	p.summary = Summary{}
}

func (p *Progress) ReportSessionStart(session *SessionTranscript) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = session.Name
}

func (p *Progress) ReportTestResult(_ *SessionTranscript, result *TestResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *result
	p.last = &copied
	p.summary.Total++
	switch result.Outcome {
	case OutcomePassed:
		p.summary.Passed++
	case OutcomeFailed:
		p.summary.Failed++
	case OutcomeErrored:
		p.summary.Errored++
	case OutcomeSkipped:
		p.summary.Skipped++
	}
}

func (p *Progress) ReportSessionResult(*SessionTranscript) {}

func (p *Progress) ReportEnd(*Transcript) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = ""
}

// Snapshot returns the current state of the run.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProgressSnapshot{
		Planned: p.planned,
		Session: p.session,
		Last:    p.last,
		Summary: p.summary,
	}
}
