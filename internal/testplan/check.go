package testplan

import (
	"fmt"
	"sort"
)

// TestLookup resolves test names to the ordered role names the test
// declares. The test registry implements it.
type TestLookup interface {
	LocalRoleNames(testName string) ([]string, bool)
}

// DriverLookup reports whether a NodeDriver is registered under a name.
// The node driver registry implements it.
type DriverLookup interface {
	HasNodeDriver(name string) bool
}

// CheckCanBeExecuted validates the plan and returns the first problem
// found as an *Error, or nil if the plan is ready for execution.
func (p *TestPlan) CheckCanBeExecuted(tests TestLookup, drivers DriverLookup) error {
	c := &checker{tests: tests, drivers: drivers, failFast: true}
	c.plan(p)
	if c.problems.HasErrors() {
		return c.problems.Errors[0]
	}
	return nil
}

// Problems validates the whole plan and returns every problem found.
func (p *TestPlan) Problems(tests TestLookup, drivers DriverLookup) *ErrorCollection {
	c := &checker{tests: tests, drivers: drivers}
	c.plan(p)
	return &c.problems
}

// CheckCanBeExecuted validates a single session.
func (s *Session) CheckCanBeExecuted(tests TestLookup, drivers DriverLookup) error {
	c := &checker{tests: tests, drivers: drivers, failFast: true}
	c.session(s, root())
	if c.problems.HasErrors() {
		return c.problems.Errors[0]
	}
	return nil
}

type checker struct {
	tests    TestLookup
	drivers  DriverLookup
	failFast bool
	problems ErrorCollection
}

// report records a problem and returns true if checking should stop.
func (c *checker) report(err *Error) bool {
	c.problems.Add(err)
	return c.failFast
}

func (c *checker) plan(p *TestPlan) bool {
	if len(p.Sessions) == 0 {
		return c.report(root().errorf("sessions", "No TestPlanSessions have been defined in TestPlan."))
	}
	for i, session := range p.Sessions {
		if c.session(session, root().inSession(i)) {
			return true
		}
	}
	return false
}

func (c *checker) session(s *Session, loc location) bool {
	if s == nil {
		return c.report(loc.errorf("", "Session is empty."))
	}
	if s.Constellation == nil {
		if c.report(loc.errorf("constellation", "No constellation has been defined.")) {
			return true
		}
	} else if c.constellation(s.Constellation, loc) {
		return true
	}

	if len(s.Tests) == 0 {
		return c.report(loc.errorf("tests", "No tests have been defined."))
	}
	for j, spec := range s.Tests {
		if c.testSpec(spec, s.Constellation, loc.inTest(j)) {
			return true
		}
	}
	return false
}

func (c *checker) constellation(con *Constellation, loc location) bool {
	for _, role := range con.RoleNames() {
		roleLoc := loc.inRole(role)
		node := con.Roles[role]
		if node == nil {
			if c.report(roleLoc.errorf("nodedriver", "No node assigned to role %s.", role)) {
				return true
			}
			continue
		}
		if c.node(node, roleLoc) {
			return true
		}
	}
	return false
}

func (c *checker) node(n *ConstellationNode, loc location) bool {
	if n.NodeDriver == "" {
		if c.report(loc.errorf("nodedriver", "No NodeDriver.")) {
			return true
		}
	} else if c.drivers != nil && !c.drivers.HasNodeDriver(n.NodeDriver) {
		if c.report(loc.errorf("nodedriver", "Cannot find NodeDriver %q.", n.NodeDriver)) {
			return true
		}
	}

	for k, account := range n.Accounts {
		for _, pr := range account.problems() {
			if c.report(loc.errorf(fmt.Sprintf("accounts[%d].%s", k, pr.field), "%s", pr.message)) {
				return true
			}
		}
	}
	for k, account := range n.NonExistingAccounts {
		for _, pr := range account.problems() {
			if c.report(loc.errorf(fmt.Sprintf("non_existing_accounts[%d].%s", k, pr.field), "%s", pr.message)) {
				return true
			}
		}
	}

	if raw, ok := n.Parameters[HostnameParameter.Name]; ok && raw != nil {
		hostname, isString := raw.(string)
		switch {
		case !isString:
			return c.report(loc.errorf("parameters.hostname", "Invalid hostname: not a string."))
		case hostname == "":
		default:
			if _, valid := HostnameValidate(hostname); !valid {
				return c.report(loc.errorf("parameters.hostname", "Invalid hostname: %q.", hostname))
			}
		}
	}
	return false
}

func (c *checker) testSpec(spec *TestSpec, con *Constellation, loc location) bool {
	if spec == nil || spec.Name == "" {
		return c.report(loc.errorf("name", "Test spec has no name."))
	}
	needed, err := spec.NeededRoleNames(c.tests)
	if err != nil {
		return c.report(loc.relocate(err))
	}
	if con == nil {
		return false
	}
	testLoc := loc.forTest(spec.Name)
	for _, role := range needed {
		if _, ok := con.Roles[role]; !ok {
			if c.report(testLoc.errorf("rolemapping", "Constellation does not define role %q.", role)) {
				return true
			}
		}
	}
	return false
}

type fieldProblem struct {
	field   string
	message string
}

func (a ExistingAccount) problems() []fieldProblem {
	var problems []fieldProblem
	if a.Email != "" {
		if _, ok := EmailValidate(a.Email); !ok {
			problems = append(problems, fieldProblem{"email", fmt.Sprintf("Invalid e-mail: %q.", a.Email)})
		}
	}
	if a.URI != "" {
		if _, ok := HTTPHTTPSAcctURIValidate(a.URI); !ok {
			problems = append(problems, fieldProblem{"uri", fmt.Sprintf("Invalid uri: %q.", a.URI)})
		}
	}
	if a.Role != "" && !RoleTagValid(a.Role) {
		problems = append(problems, fieldProblem{"role", fmt.Sprintf("Invalid role: %q.", a.Role)})
	}
	return problems
}

func (a NonExistingAccount) problems() []fieldProblem {
	var problems []fieldProblem
	if a.URI != "" {
		if _, ok := HTTPHTTPSAcctURIValidate(a.URI); !ok {
			problems = append(problems, fieldProblem{"uri", fmt.Sprintf("Invalid uri: %q.", a.URI)})
		}
	}
	if a.Role != "" && !RoleTagValid(a.Role) {
		problems = append(problems, fieldProblem{"role", fmt.Sprintf("Invalid role: %q.", a.Role)})
	}
	return problems
}

// NeededRoleNames returns the constellation role names the referenced test
// needs, in the test's declared role order, after renaming through the
// rolemapping. Every mapping key must be a role of the test and no two
// roles may be mapped onto the same constellation role.
func (s *TestSpec) NeededRoleNames(tests TestLookup) ([]string, error) {
	local, ok := tests.LocalRoleNames(s.Name)
	if !ok {
		return nil, &Error{Session: -1, Test: -1, Field: "name", Message: fmt.Sprintf("Cannot find test %q.", s.Name)}
	}

	declared := make(map[string]bool, len(local))
	for _, role := range local {
		declared[role] = true
	}
	keys := make([]string, 0, len(s.Rolemapping))
	for key := range s.Rolemapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !declared[key] {
			return nil, &Error{Session: -1, Test: -1, Field: "rolemapping", Message: fmt.Sprintf("Cannot find role %q in test %q.", key, s.Name)}
		}
	}

	needed := make([]string, 0, len(local))
	claimedBy := make(map[string]string, len(local))
	for _, role := range local {
		target := s.ConstellationRoleFor(role)
		if other, taken := claimedBy[target]; taken {
			return nil, &Error{
				Session: -1,
				Test:    -1,
				Field:   "rolemapping",
				Message: fmt.Sprintf("Roles %q and %q of test %q are both mapped to constellation role %q.", other, role, s.Name, target),
			}
		}
		claimedBy[target] = role
		needed = append(needed, target)
	}
	return needed, nil
}

// ConstellationRoleFor translates one of the test's role names into the
// constellation role name.
func (s *TestSpec) ConstellationRoleFor(localRole string) string {
	if mapped, ok := s.Rolemapping[localRole]; ok {
		return mapped
	}
	return localRole
}

// NeededRoleNames returns the union of the roles needed by all test specs
// of the session, sorted.
func (s *Session) NeededRoleNames(tests TestLookup) ([]string, error) {
	set := map[string]bool{}
	for j, spec := range s.Tests {
		roles, err := spec.NeededRoleNames(tests)
		if err != nil {
			return nil, root().inTest(j).relocate(err)
		}
		for _, role := range roles {
			set[role] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// InstantiateWithConstellation treats this session as a template and
// returns a new session that runs the same tests against constellation.
func (s *Session) InstantiateWithConstellation(constellation *Constellation, name string, tests TestLookup) (*Session, error) {
	needed, err := s.NeededRoleNames(tests)
	if err != nil {
		return nil, err
	}
	for _, role := range needed {
		if _, ok := constellation.Roles[role]; !ok {
			return nil, &Error{Session: -1, Test: -1, Field: "roles", Message: fmt.Sprintf("Constellation does not define role %q.", role)}
		}
	}
	specs := make([]*TestSpec, len(s.Tests))
	copy(specs, s.Tests)
	return &Session{Constellation: constellation, Tests: specs, Name: name}, nil
}

// Simplify removes identity entries from the rolemapping.
func (s *TestSpec) Simplify() {
	if len(s.Rolemapping) == 0 {
		s.Rolemapping = nil
		return
	}
	var simplified map[string]string
	for local, mapped := range s.Rolemapping {
		if local == mapped {
			continue
		}
		if simplified == nil {
			simplified = map[string]string{}
		}
		simplified[local] = mapped
	}
	s.Rolemapping = simplified
}

// Simplify simplifies every test spec of the session.
func (s *Session) Simplify() {
	for _, spec := range s.Tests {
		spec.Simplify()
	}
}

// Simplify simplifies every session of the plan.
func (p *TestPlan) Simplify() {
	for _, session := range p.Sessions {
		session.Simplify()
	}
}
