package testrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"feditest/internal/buildinfo"
	"feditest/internal/nodedriver"
	"feditest/internal/registry"
	"feditest/internal/testplan"
	"feditest/pkg/logging"
)

// FilteredOutReason is the skip reason of specs rejected by the engine's
// filter.
const FilteredOutReason = "excluded by filter"

// UnknownTestError reports a test spec naming a test that is not
// registered.
type UnknownTestError struct {
	Name string
}

func (e *UnknownTestError) Error() string {
	return fmt.Sprintf("test %q is not registered", e.Name)
}

// UnboundRoleError reports a test role that the session's constellation
// has no node for.
type UnboundRoleError struct {
	Test string
	Role string
}

func (e *UnboundRoleError) Error() string {
	return fmt.Sprintf("test %s needs constellation role %s, which has no node", e.Test, e.Role)
}

// PanicError carries a value recovered from a panicking test body or
// node driver.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// problem returns the problem of the recovered value rather than of the
// wrapper.
func (e *PanicError) problem() *Problem {
	if err, ok := e.Value.(error); ok {
		return &Problem{Type: typeName(causeOf(err)), Message: err.Error()}
	}
	return &Problem{Type: typeName(e.Value), Message: fmt.Sprint(e.Value)}
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporters adds reporters that are told about the progress of a run.
func WithReporters(reporters ...Reporter) Option {
	return func(e *Engine) {
		e.reporters = append(e.reporters, reporters...)
	}
}

// WithFilter skips every test spec whose name the filter rejects.
func WithFilter(filter registry.Filter) Option {
	return func(e *Engine) {
		e.filter = filter
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine runs test plans.
type Engine struct {
	tests       *registry.Registry
	provisioner *Provisioner
	reporters   multiReporter
	filter      registry.Filter
	now         func() time.Time
}

// NewEngine creates an engine running tests from tests against nodes
// provisioned by drivers.
func NewEngine(tests *registry.Registry, drivers *nodedriver.Registry, opts ...Option) *Engine {
	e := &Engine{
		tests:       tests,
		provisioner: NewProvisioner(drivers),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the sessions of plan one after another. Test outcomes are
// recorded in the transcript, not returned as errors. The error is only
// set if ctx was cancelled, in which case the transcript holds what ran
// so far.
func (e *Engine) Run(ctx context.Context, plan *testplan.TestPlan) (*Transcript, error) {
	started := e.now().UTC()
	transcript := &Transcript{
		ID:              started.Format(RunIDFormat),
		Plan:            plan.String(),
		FeditestVersion: buildinfo.Version,
		Started:         started,
	}
	logging.Info("Engine", "Starting run %s of test plan %s with %d sessions", transcript.ID, plan.String(), len(plan.Sessions))
	e.reporters.ReportStart(plan, transcript)

	var err error
	for i, session := range plan.Sessions {
		if err = ctx.Err(); err != nil {
			logging.Warn("Engine", "Run %s cancelled before session %d", transcript.ID, i)
			break
		}
		st := e.newSessionTranscript(plan, session, i)
		transcript.Sessions = append(transcript.Sessions, st)
		e.runSession(ctx, session, st)
	}

	transcript.Ended = e.now().UTC()
	e.reporters.ReportEnd(transcript)
	logging.Info("Engine", "Finished run %s: %s", transcript.ID, transcript.BuildSummary())
	return transcript, err
}

func (e *Engine) newSessionTranscript(plan *testplan.TestPlan, session *testplan.Session, index int) *SessionTranscript {
	st := &SessionTranscript{
		ID:      uuid.NewString(),
		Name:    session.Name,
		State:   SessionPending,
		Results: []*TestResult{},
	}
	if st.Name == "" {
		st.Name = fmt.Sprintf("%s/%d", plan.String(), index)
	}
	if c := session.Constellation; c != nil {
		st.ConstellationName = c.Name
		for _, role := range c.RoleNames() {
			rt := &RoleTranscript{Name: role}
			if node := c.Roles[role]; node != nil {
				rt.Driver = node.NodeDriver
			}
			st.Roles = append(st.Roles, rt)
		}
	}
	return st
}

func (e *Engine) runSession(ctx context.Context, session *testplan.Session, st *SessionTranscript) {
	st.Started = e.now().UTC()
	defer func() {
		st.Ended = e.now().UTC()
		e.reporters.ReportSessionResult(st)
	}()
	e.reporters.ReportSessionStart(st)

	if len(session.Tests) == 0 {
		logging.Info("Engine", "Session %s has no tests, skipping", st.Name)
		st.State = SessionSkipped
		return
	}

	if !e.needsNodes(session) {
		for _, spec := range session.Tests {
			e.record(st, e.skipped(spec))
		}
		st.State = SessionDone
		return
	}

	st.State = SessionSettingUp
	if session.Constellation == nil {
		e.failSession(st, session, &testplan.Error{Session: -1, Test: -1, Message: "session has no constellation"})
		return
	}
	deployment, err := e.provisioner.Setup(ctx, session.Constellation)
	if err != nil {
		e.failSession(st, session, err)
		return
	}
	for role, node := range deployment.Nodes {
		if rt := st.role(role); rt != nil && node.Config() != nil {
			rt.App = node.Config().App
			rt.AppVersion = node.Config().AppVersion
			rt.Hostname = node.Hostname()
		}
	}

	st.State = SessionExecuting
	for _, spec := range session.Tests {
		e.record(st, e.runSpec(ctx, spec, deployment.Nodes))
	}

	st.State = SessionTearingDown
	if err := e.provisioner.Teardown(ctx, deployment); err != nil {
		st.TeardownProblem = NewProblem(err)
	}
	st.State = SessionDone
}

// needsNodes reports whether at least one spec of the session will run.
func (e *Engine) needsNodes(session *testplan.Session) bool {
	for _, spec := range session.Tests {
		if e.skipReason(spec) == "" {
			return true
		}
	}
	return false
}

func (e *Engine) skipReason(spec *testplan.TestSpec) string {
	if spec.Skip != "" {
		return spec.Skip
	}
	if e.filter.IsDefined() && !e.filter.Accepts(spec.Name) {
		return FilteredOutReason
	}
	return ""
}

func (e *Engine) failSession(st *SessionTranscript, session *testplan.Session, err error) {
	logging.Error("Engine", err, "Setting up session %s failed", st.Name)
	st.SetupProblem = NewProblem(err)
	for _, spec := range session.Tests {
		now := e.now().UTC()
		e.record(st, &TestResult{
			Name:    spec.Name,
			Outcome: OutcomeErrored,
			Problem: st.SetupProblem,
			Started: now,
			Ended:   now,
		})
	}
	st.State = SessionDone
}

func (e *Engine) skipped(spec *testplan.TestSpec) *TestResult {
	now := e.now().UTC()
	return &TestResult{
		Name:       spec.Name,
		Outcome:    OutcomeSkipped,
		SkipReason: e.skipReason(spec),
		Started:    now,
		Ended:      now,
	}
}

func (e *Engine) record(st *SessionTranscript, result *TestResult) {
	st.append(result)
	e.reporters.ReportTestResult(st, result)
}

func (e *Engine) runSpec(ctx context.Context, spec *testplan.TestSpec, nodes map[string]nodedriver.Node) *TestResult {
	if e.skipReason(spec) != "" {
		logging.Debug("Engine", "Skipping test %s", spec.Name)
		return e.skipped(spec)
	}

	result := &TestResult{Name: spec.Name, Started: e.now().UTC()}
	err := e.invoke(ctx, spec, nodes)
	result.Ended = e.now().UTC()
	result.Outcome, result.Problem = classify(err)
	logging.Debug("Engine", "Test %s: %s", spec.Name, result.Outcome)
	return result
}

func (e *Engine) invoke(ctx context.Context, spec *testplan.TestSpec, nodes map[string]nodedriver.Node) (err error) {
	test, ok := e.tests.Get(spec.Name)
	if !ok {
		return &UnknownTestError{Name: spec.Name}
	}
	args := make([]nodedriver.Node, 0, len(test.Roles))
	for _, role := range test.RoleNames() {
		target := spec.ConstellationRoleFor(role)
		node, ok := nodes[target]
		if !ok {
			return &UnboundRoleError{Test: spec.Name, Role: target}
		}
		args = append(args, node)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	logging.Info("Engine", "Running test %s", spec.Name)
	return test.Run(ctx, args)
}

func classify(err error) (Outcome, *Problem) {
	if err == nil {
		return OutcomePassed, nil
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return OutcomeErrored, panicErr.problem()
	}
	if registry.IsFailure(err) {
		return OutcomeFailed, NewProblem(err)
	}
	return OutcomeErrored, NewProblem(err)
}
