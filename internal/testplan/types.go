package testplan

import (
	"sort"

	"feditest/internal/buildinfo"
)

// TypeTag is the value of the "type" discriminator of a persisted TestPlan.
const TypeTag = "feditest-testplan"

// ExistingAccount captures what a NodeDriver needs to know about a
// pre-provisioned account on a node. All fields are optional; each driver
// decides what constitutes a complete account.
type ExistingAccount struct {
	Userid     string `json:"userid,omitempty"`
	Email      string `json:"email,omitempty"`
	URI        string `json:"uri,omitempty"`
	Password   string `json:"password,omitempty"`
	OAuthToken string `json:"oauth_token,omitempty"`
	// Role assigns the account to a symbolic account role used by tests.
	Role string `json:"role,omitempty"`
}

// NonExistingAccount describes an account that could exist on a node but
// does not. Tests use it to probe negative lookups.
type NonExistingAccount struct {
	Userid string `json:"userid,omitempty"`
	URI    string `json:"uri,omitempty"`
	Role   string `json:"role,omitempty"`
}

// ConstellationNode binds one constellation role to a NodeDriver together
// with the driver's parameters and accounts.
type ConstellationNode struct {
	NodeDriver          string               `json:"nodedriver,omitempty"`
	Parameters          map[string]any       `json:"parameters,omitempty"`
	Accounts            []ExistingAccount    `json:"accounts,omitempty"`
	NonExistingAccounts []NonExistingAccount `json:"non_existing_accounts,omitempty"`
}

// AccountByRole returns the account assigned to the given account role.
func (n *ConstellationNode) AccountByRole(role string) (*ExistingAccount, bool) {
	for i := range n.Accounts {
		if n.Accounts[i].Role == role {
			return &n.Accounts[i], true
		}
	}
	return nil, false
}

// NonExistingAccountByRole returns the non-existing account assigned to the
// given account role.
func (n *ConstellationNode) NonExistingAccountByRole(role string) (*NonExistingAccount, bool) {
	for i := range n.NonExistingAccounts {
		if n.NonExistingAccounts[i].Role == role {
			return &n.NonExistingAccounts[i], true
		}
	}
	return nil, false
}

// Constellation maps role names to nodes. A nil node marks the role as
// unbound, which makes the constellation a template.
type Constellation struct {
	Roles map[string]*ConstellationNode `json:"roles"`
	Name  string                        `json:"name,omitempty"`
}

func (c *Constellation) String() string {
	if c == nil || c.Name == "" {
		return "Unnamed"
	}
	return c.Name
}

// RoleNames returns the constellation's role names in sorted order.
func (c *Constellation) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for name := range c.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTemplate returns true if at least one role has not been bound to a node.
func (c *Constellation) IsTemplate() bool {
	for _, node := range c.Roles {
		if node == nil {
			return true
		}
	}
	return false
}

// TestSpec references a registered test by name.
type TestSpec struct {
	Name string `json:"name"`
	// Rolemapping maps the test's own role names to constellation role names.
	Rolemapping map[string]string `json:"rolemapping,omitempty"`
	// Skip, if not empty, is the reason why this test is not run.
	Skip string `json:"skip,omitempty"`
}

func (s *TestSpec) String() string {
	return s.Name
}

// Session is a constellation plus the ordered test specs run against it.
// It doubles as a template when its constellation is a template.
type Session struct {
	Constellation *Constellation `json:"constellation"`
	Tests         []*TestSpec    `json:"tests"`
	Name          string         `json:"name,omitempty"`
}

func (s *Session) String() string {
	if s.Name == "" {
		return "Unnamed"
	}
	return s.Name
}

// IsTemplate returns true if the session's constellation is a template.
func (s *Session) IsTemplate() bool {
	return s.Constellation == nil || s.Constellation.IsTemplate()
}

// TestPlan is an ordered list of sessions.
type TestPlan struct {
	Sessions        []*Session `json:"sessions"`
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	FeditestVersion string     `json:"feditest_version"`
}

// New creates a TestPlan tagged with the running engine version.
func New(name string, sessions ...*Session) *TestPlan {
	return &TestPlan{
		Sessions:        sessions,
		Name:            name,
		Type:            TypeTag,
		FeditestVersion: buildinfo.Version,
	}
}

func (p *TestPlan) String() string {
	if p.Name == "" {
		return "Unnamed"
	}
	return p.Name
}

// IsCompatibleType reports whether the type tag is absent or TypeTag.
func (p *TestPlan) IsCompatibleType() bool {
	return p.Type == "" || p.Type == TypeTag
}
