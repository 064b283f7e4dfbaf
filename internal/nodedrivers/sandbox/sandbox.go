// Package sandbox provides in-process nodes for the toy Mult protocol: one
// client and three servers, the last of which is deliberately wrong.
package sandbox

import (
	"context"

	"feditest/internal/nodedriver"
	"feditest/internal/protocols/sandbox"
	"feditest/internal/testplan"
	"feditest/pkg/logging"
)

// Driver names as used in test plans.
const (
	ClientDriverName        = "SandboxMultClientDriver_ImplementationA"
	Server1DriverName       = "SandboxMultServerDriver_Implementation1"
	Server2DriverName       = "SandboxMultServerDriver_Implementation2"
	Server3FaultyDriverName = "SandboxMultServerDriver_Implementation3_Faulty"
)

// Client calls Mult on whatever server it is given.
type Client struct {
	*nodedriver.NodeBase
}

func (c *Client) CauseMult(server sandbox.MultServer, a, b int) (int, error) {
	logging.Debug("Sandbox", "Client %s asks %s to multiply %d and %d", c.RoleName(), server.RoleName(), a, b)
	return server.Mult(a, b)
}

type server struct {
	*nodedriver.NodeBase
	log  sandbox.Log
	mult func(a, b int) int
}

func (s *server) Mult(a, b int) (int, error) {
	c := s.mult(a, b)
	s.log.Record(a, b, c)
	return c, nil
}

func (s *server) StartLogging() error {
	s.log.Start()
	return nil
}

func (s *server) GetAndClearLog() ([]sandbox.LogEvent, error) {
	return s.log.GetAndClear(), nil
}

func multiply(a, b int) int {
	return a * b
}

func multiplyByLoop(a, b int) int {
	c := 0
	for i := 0; i < a; i++ {
		c += b
	}
	return c
}

func alwaysSeventeen(a, b int) int {
	return 17
}

// Driver provisions one kind of sandbox node.
type Driver struct {
	nodedriver.DriverBase
	newNode func(base *nodedriver.NodeBase) nodedriver.Node
}

// NewClientDriver returns the driver for the sandbox client.
func NewClientDriver() *Driver {
	return &Driver{
		DriverBase: nodedriver.NewDriverBase(ClientDriverName),
		newNode:    func(base *nodedriver.NodeBase) nodedriver.Node { return &Client{NodeBase: base} },
	}
}

// NewServer1Driver returns the driver for the server that computes a*b.
func NewServer1Driver() *Driver {
	return newServerDriver(Server1DriverName, multiply)
}

// NewServer2Driver returns the driver for the server that adds in a loop.
func NewServer2Driver() *Driver {
	return newServerDriver(Server2DriverName, multiplyByLoop)
}

// NewServer3FaultyDriver returns the driver for the server that always
// answers 17.
func NewServer3FaultyDriver() *Driver {
	return newServerDriver(Server3FaultyDriverName, alwaysSeventeen)
}

func newServerDriver(name string, mult func(a, b int) int) *Driver {
	return &Driver{
		DriverBase: nodedriver.NewDriverBase(name),
		newNode: func(base *nodedriver.NodeBase) nodedriver.Node {
			return &server{NodeBase: base, mult: mult}
		},
	}
}

// Drivers returns every sandbox driver.
func Drivers() []nodedriver.NodeDriver {
	return []nodedriver.NodeDriver{
		NewClientDriver(),
		NewServer1Driver(),
		NewServer2Driver(),
		NewServer3FaultyDriver(),
	}
}

func (d *Driver) CreateConfigurationAndAccountManager(role string, node *testplan.ConstellationNode) (*nodedriver.Configuration, nodedriver.AccountManager, error) {
	cfg, err := nodedriver.NewConfiguration(d, node, nil)
	if err != nil {
		return nil, nil, err
	}
	cfg.App = d.Name()
	return cfg, nil, nil
}

func (d *Driver) ProvisionNode(ctx context.Context, role string, cfg *nodedriver.Configuration, accounts nodedriver.AccountManager) (nodedriver.Node, error) {
	logging.Debug("Sandbox", "Provisioning %s for role %s", d.Name(), role)
	return d.newNode(nodedriver.NewNodeBase(role, cfg, accounts)), nil
}

func (d *Driver) UnprovisionNode(ctx context.Context, node nodedriver.Node) error {
	return nodedriver.CheckOwnership(d, node)
}
