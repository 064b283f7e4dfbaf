package testrun

import "feditest/internal/testplan"

// Reporter is told about the progress of a run as it happens.
type Reporter interface {
	// ReportStart is called once, before the first session.
	ReportStart(plan *testplan.TestPlan, transcript *Transcript)
	// ReportSessionStart is called before a session's constellation is set up.
	ReportSessionStart(session *SessionTranscript)
	// ReportTestResult is called after every test, including skipped ones.
	ReportTestResult(session *SessionTranscript, result *TestResult)
	// ReportSessionResult is called after a session's constellation is torn down.
	ReportSessionResult(session *SessionTranscript)
	// ReportEnd is called once, after the last session.
	ReportEnd(transcript *Transcript)
}

type multiReporter []Reporter

func (m multiReporter) ReportStart(plan *testplan.TestPlan, transcript *Transcript) {
	for _, r := range m {
		r.ReportStart(plan, transcript)
	}
}

func (m multiReporter) ReportSessionStart(session *SessionTranscript) {
	for _, r := range m {
		r.ReportSessionStart(session)
	}
}

func (m multiReporter) ReportTestResult(session *SessionTranscript, result *TestResult) {
	for _, r := range m {
		r.ReportTestResult(session, result)
	}
}

func (m multiReporter) ReportSessionResult(session *SessionTranscript) {
	for _, r := range m {
		r.ReportSessionResult(session)
	}
}

func (m multiReporter) ReportEnd(transcript *Transcript) {
	for _, r := range m {
		r.ReportEnd(transcript)
	}
}
