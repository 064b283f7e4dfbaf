package testplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTests map[string][]string

func (f fakeTests) LocalRoleNames(name string) ([]string, bool) {
	roles, ok := f[name]
	return roles, ok
}

type fakeDrivers map[string]bool

func (f fakeDrivers) HasNodeDriver(name string) bool {
	return f[name]
}

var (
	knownTests = fakeTests{
		"sandbox::mult":     {"client", "server"},
		"webfinger::valid":  {"client", "server"},
		"webfinger::server": {"server"},
	}
	knownDrivers = fakeDrivers{"SandboxMultClientDriver": true, "SandboxMultServerDriver_ImplementationA": true}
)

func sandboxConstellation() *Constellation {
	return &Constellation{
		Name: "sandbox",
		Roles: map[string]*ConstellationNode{
			"client": {NodeDriver: "SandboxMultClientDriver"},
			"server": {NodeDriver: "SandboxMultServerDriver_ImplementationA"},
		},
	}
}

func sandboxPlan(specs ...*TestSpec) *TestPlan {
	return New("sandbox", &Session{Constellation: sandboxConstellation(), Tests: specs})
}

func TestCheckCanBeExecuted(t *testing.T) {
	tests := []struct {
		name        string
		plan        func() *TestPlan
		wantMessage string
		wantSession int
		wantRole    string
		wantField   string
	}{
		{
			name:        "no sessions",
			plan:        func() *TestPlan { return New("empty") },
			wantMessage: "No TestPlanSessions have been defined in TestPlan.",
			wantSession: -1,
			wantField:   "sessions",
		},
		{
			name: "unbound role",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["server"] = nil
				return p
			},
			wantMessage: "No node assigned to role server.",
			wantRole:    "server",
			wantField:   "nodedriver",
		},
		{
			name: "unknown driver",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["client"].NodeDriver = "Nope"
				return p
			},
			wantMessage: `Cannot find NodeDriver "Nope".`,
			wantRole:    "client",
			wantField:   "nodedriver",
		},
		{
			name: "missing driver name",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["client"].NodeDriver = ""
				return p
			},
			wantMessage: "No NodeDriver.",
			wantRole:    "client",
			wantField:   "nodedriver",
		},
		{
			name: "invalid hostname",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["server"].Parameters = map[string]any{"hostname": "not a host"}
				return p
			},
			wantMessage: `Invalid hostname: "not a host".`,
			wantRole:    "server",
			wantField:   "parameters.hostname",
		},
		{
			name: "hostname of wrong type",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["server"].Parameters = map[string]any{"hostname": float64(12)}
				return p
			},
			wantMessage: "Invalid hostname: not a string.",
			wantRole:    "server",
			wantField:   "parameters.hostname",
		},
		{
			name: "invalid account email",
			plan: func() *TestPlan {
				p := sandboxPlan(&TestSpec{Name: "sandbox::mult"})
				p.Sessions[0].Constellation.Roles["server"].Accounts = []ExistingAccount{{Email: "joe"}}
				return p
			},
			wantMessage: `Invalid e-mail: "joe".`,
			wantRole:    "server",
			wantField:   "accounts[0].email",
		},
		{
			name:        "no tests",
			plan:        func() *TestPlan { return sandboxPlan() },
			wantMessage: "No tests have been defined.",
			wantField:   "tests",
		},
		{
			name:        "unknown test",
			plan:        func() *TestPlan { return sandboxPlan(&TestSpec{Name: "nope::nope"}) },
			wantMessage: `Cannot find test "nope::nope".`,
			wantField:   "name",
		},
		{
			name: "rolemapping key not a role of the test",
			plan: func() *TestPlan {
				return sandboxPlan(&TestSpec{Name: "sandbox::mult", Rolemapping: map[string]string{"other": "server"}})
			},
			wantMessage: `Cannot find role "other" in test "sandbox::mult".`,
			wantField:   "rolemapping",
		},
		{
			name: "mapped role missing in constellation",
			plan: func() *TestPlan {
				return sandboxPlan(&TestSpec{Name: "webfinger::server", Rolemapping: map[string]string{"server": "server2"}})
			},
			wantMessage: `Constellation does not define role "server2".`,
			wantField:   "rolemapping",
		},
		{
			name: "two roles mapped to one constellation role",
			plan: func() *TestPlan {
				return sandboxPlan(&TestSpec{Name: "sandbox::mult", Rolemapping: map[string]string{"client": "server"}})
			},
			wantMessage: `Roles "client" and "server" of test "sandbox::mult" are both mapped to constellation role "server".`,
			wantField:   "rolemapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan().CheckCanBeExecuted(knownTests, knownDrivers)
			require.Error(t, err)

			var planErr *Error
			require.True(t, errors.As(err, &planErr))
			assert.Equal(t, tt.wantMessage, planErr.Message)
			assert.Equal(t, tt.wantRole, planErr.Role)
			assert.Equal(t, tt.wantField, planErr.Field)
			if tt.wantSession == -1 {
				assert.Equal(t, -1, planErr.Session)
			} else {
				assert.Equal(t, 0, planErr.Session)
			}
		})
	}
}

func TestCheckCanBeExecutedAcceptsValidPlan(t *testing.T) {
	plan := sandboxPlan(
		&TestSpec{Name: "sandbox::mult"},
		&TestSpec{Name: "webfinger::server"},
		&TestSpec{Name: "webfinger::valid", Rolemapping: map[string]string{"client": "client"}, Skip: "flaky"},
	)
	assert.NoError(t, plan.CheckCanBeExecuted(knownTests, knownDrivers))
}

func TestErrorMessageCarriesLocation(t *testing.T) {
	plan := sandboxPlan(&TestSpec{Name: "webfinger::server", Rolemapping: map[string]string{"server": "server2"}})
	err := plan.CheckCanBeExecuted(knownTests, knownDrivers)
	require.Error(t, err)
	assert.Equal(t,
		`TestPlan defined insufficiently: TestPlanSession 0: Test (index 0): Test "webfinger::server": Constellation does not define role "server2".`,
		err.Error())
}

func TestProblemsCollectsEverything(t *testing.T) {
	plan := New("broken",
		&Session{
			Constellation: &Constellation{Roles: map[string]*ConstellationNode{
				"client": {NodeDriver: "Nope"},
				"server": nil,
			}},
			Tests: []*TestSpec{{Name: "nope::nope"}},
		},
		&Session{Constellation: sandboxConstellation()},
	)

	problems := plan.Problems(knownTests, knownDrivers)
	require.True(t, problems.HasErrors())
	assert.Equal(t, 4, problems.Count())
	assert.Len(t, problems.BySession(0), 3)
	assert.Len(t, problems.BySession(1), 1)
	assert.Contains(t, problems.Error(), "4 test plan errors")
}

func TestTestSpecNeededRoleNames(t *testing.T) {
	spec := &TestSpec{Name: "sandbox::mult", Rolemapping: map[string]string{"server": "leader"}}
	roles, err := spec.NeededRoleNames(knownTests)
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "leader"}, roles)
	assert.Equal(t, "leader", spec.ConstellationRoleFor("server"))
	assert.Equal(t, "client", spec.ConstellationRoleFor("client"))
}

func TestSessionNeededRoleNames(t *testing.T) {
	session := &Session{Tests: []*TestSpec{
		{Name: "webfinger::server", Rolemapping: map[string]string{"server": "b"}},
		{Name: "sandbox::mult"},
	}}
	roles, err := session.NeededRoleNames(knownTests)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "client", "server"}, roles)

	session.Tests = append(session.Tests, &TestSpec{Name: "unknown"})
	_, err = session.NeededRoleNames(knownTests)
	var planErr *Error
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, 2, planErr.Test)
}

func TestInstantiateWithConstellation(t *testing.T) {
	template := &Session{
		Constellation: &Constellation{Roles: map[string]*ConstellationNode{"client": nil, "server": nil}},
		Tests:         []*TestSpec{{Name: "sandbox::mult"}},
	}
	require.True(t, template.IsTemplate())

	session, err := template.InstantiateWithConstellation(sandboxConstellation(), "instantiated", knownTests)
	require.NoError(t, err)
	assert.False(t, session.IsTemplate())
	assert.Equal(t, "instantiated", session.Name)
	assert.Equal(t, template.Tests, session.Tests)
	assert.NoError(t, session.CheckCanBeExecuted(knownTests, knownDrivers))

	partial := &Constellation{Roles: map[string]*ConstellationNode{"client": {NodeDriver: "SandboxMultClientDriver"}}}
	_, err = template.InstantiateWithConstellation(partial, "partial", knownTests)
	assert.ErrorContains(t, err, `Constellation does not define role "server".`)
}

func TestSimplify(t *testing.T) {
	plan := sandboxPlan(
		&TestSpec{Name: "sandbox::mult", Rolemapping: map[string]string{"client": "client", "server": "leader"}},
		&TestSpec{Name: "webfinger::server", Rolemapping: map[string]string{"server": "server"}},
		&TestSpec{Name: "webfinger::valid", Rolemapping: map[string]string{}},
	)
	plan.Simplify()

	assert.Equal(t, map[string]string{"server": "leader"}, plan.Sessions[0].Tests[0].Rolemapping)
	assert.Nil(t, plan.Sessions[0].Tests[1].Rolemapping)
	assert.Nil(t, plan.Sessions[0].Tests[2].Rolemapping)
}
