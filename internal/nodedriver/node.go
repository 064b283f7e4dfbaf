package nodedriver

import (
	"context"

	"feditest/internal/testplan"
)

// Node is a provisioned instance of an application under test playing one
// role of a constellation. Protocol capabilities such as a WebFinger
// server are expressed as additional interfaces a Node may implement.
type Node interface {
	RoleName() string
	Hostname() string
	Parameter(name string) (string, bool)
	Driver() NodeDriver
	Config() *Configuration
	Accounts() AccountManager
}

// NodeDriver knows how to bring Nodes of one kind into existence and how
// to dispose of them again.
type NodeDriver interface {
	Name() string
	NodeParameters() []testplan.NodeParameter
	AccountFields() []testplan.AccountField
	NonExistingAccountFields() []testplan.AccountField

	// CreateConfigurationAndAccountManager turns the plan's description of
	// a role into a configuration. It may return a nil AccountManager.
	CreateConfigurationAndAccountManager(role string, node *testplan.ConstellationNode) (*Configuration, AccountManager, error)
	ProvisionNode(ctx context.Context, role string, cfg *Configuration, accounts AccountManager) (Node, error)
	UnprovisionNode(ctx context.Context, node Node) error
}

// Configuration is the resolved, validated description of a node.
type Configuration struct {
	Driver     NodeDriver
	App        string
	AppVersion string
	Hostname   string
	// Parameters holds every parameter the driver resolved, by name.
	Parameters map[string]string
}

// NewConfiguration resolves the driver's declared parameters against the
// plan node. Parameters with an invalid value make it fail.
func NewConfiguration(driver NodeDriver, node *testplan.ConstellationNode, defaults map[string]string) (*Configuration, error) {
	cfg := &Configuration{Driver: driver, Parameters: map[string]string{}}
	for _, par := range driver.NodeParameters() {
		value, ok, err := node.ValidatedParameter(par, defaults)
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.Parameters[par.Name] = value
		}
	}
	cfg.Hostname = cfg.Parameters[testplan.HostnameParameter.Name]
	cfg.App = cfg.Parameters[testplan.AppParameter.Name]
	cfg.AppVersion = cfg.Parameters[testplan.AppVersionParameter.Name]
	return cfg, nil
}

// Parameter returns a resolved parameter.
func (c *Configuration) Parameter(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Parameters[name]
	return v, ok
}

// NodeBase implements the Node plumbing. Drivers embed it in their own
// node types.
type NodeBase struct {
	role     string
	cfg      *Configuration
	accounts AccountManager
}

// NewNodeBase creates the common part of a node.
func NewNodeBase(role string, cfg *Configuration, accounts AccountManager) *NodeBase {
	if cfg == nil {
		cfg = &Configuration{Parameters: map[string]string{}}
	}
	return &NodeBase{role: role, cfg: cfg, accounts: accounts}
}

func (n *NodeBase) RoleName() string { return n.role }

func (n *NodeBase) Hostname() string { return n.cfg.Hostname }

func (n *NodeBase) Parameter(name string) (string, bool) { return n.cfg.Parameter(name) }

func (n *NodeBase) Driver() NodeDriver { return n.cfg.Driver }

func (n *NodeBase) Config() *Configuration { return n.cfg }

func (n *NodeBase) Accounts() AccountManager { return n.accounts }

func (n *NodeBase) String() string {
	if n.cfg.Driver == nil {
		return n.role
	}
	return n.role + " (" + n.cfg.Driver.Name() + ")"
}

// DriverBase provides the parts of NodeDriver most drivers share.
type DriverBase struct {
	name string
}

// NewDriverBase returns a DriverBase reporting the given name.
func NewDriverBase(name string) DriverBase {
	return DriverBase{name: name}
}

func (d DriverBase) Name() string { return d.name }

func (d DriverBase) NodeParameters() []testplan.NodeParameter { return nil }

func (d DriverBase) AccountFields() []testplan.AccountField { return nil }

func (d DriverBase) NonExistingAccountFields() []testplan.AccountField { return nil }

// CheckOwnership returns an error unless node was provisioned by driver.
func CheckOwnership(driver NodeDriver, node Node) error {
	if node.Driver() == nil || node.Driver().Name() != driver.Name() {
		return &ForeignNodeError{Driver: driver.Name(), Role: node.RoleName()}
	}
	return nil
}
