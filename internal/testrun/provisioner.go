package testrun

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"feditest/internal/nodedriver"
	"feditest/internal/testplan"
	"feditest/pkg/logging"
)

// SetupError reports that a role of a constellation could not be
// provisioned.
type SetupError struct {
	Role string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to set up role %s: %v", e.Role, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// TeardownError reports that a node could not be unprovisioned.
type TeardownError struct {
	Role string
	Err  error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("failed to tear down role %s: %v", e.Role, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}

// Deployment holds the nodes provisioned for a constellation, by role,
// and the driver that provisioned each of them.
type Deployment struct {
	Nodes   map[string]nodedriver.Node
	drivers map[string]nodedriver.NodeDriver
}

func newDeployment(size int) *Deployment {
	return &Deployment{
		Nodes:   make(map[string]nodedriver.Node, size),
		drivers: make(map[string]nodedriver.NodeDriver, size),
	}
}

// Provisioner brings the nodes of a constellation up and down.
type Provisioner struct {
	drivers *nodedriver.Registry
}

// NewProvisioner creates a provisioner looking drivers up in drivers.
func NewProvisioner(drivers *nodedriver.Registry) *Provisioner {
	return &Provisioner{drivers: drivers}
}

// Setup provisions a node for every role, in role name order. If any role
// fails or its driver panics, the nodes provisioned so far are torn down
// and the returned error joins the *SetupError with any teardown errors.
func (p *Provisioner) Setup(ctx context.Context, constellation *testplan.Constellation) (*Deployment, error) {
	deployment := newDeployment(len(constellation.Roles))
	for _, role := range constellation.RoleNames() {
		driver, node, err := p.setupRole(ctx, role, constellation.Roles[role])
		if err != nil {
			setupErr := &SetupError{Role: role, Err: err}
			logging.Error("Provisioner", setupErr, "Setting up constellation %s failed", constellation.String())
			if teardownErr := p.Teardown(ctx, deployment); teardownErr != nil {
				return nil, errors.Join(setupErr, teardownErr)
			}
			return nil, setupErr
		}
		deployment.Nodes[role] = node
		deployment.drivers[role] = driver
	}
	return deployment, nil
}

func (p *Provisioner) setupRole(ctx context.Context, role string, planNode *testplan.ConstellationNode) (driver nodedriver.NodeDriver, node nodedriver.Node, err error) {
	if planNode == nil {
		return nil, nil, fmt.Errorf("role %s is not bound to a node", role)
	}
	driver, err = p.drivers.Get(planNode.NodeDriver)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			driver, node, err = nil, nil, &PanicError{Value: r}
		}
	}()
	cfg, accounts, err := driver.CreateConfigurationAndAccountManager(role, planNode)
	if err != nil {
		return nil, nil, err
	}
	logging.Info("Provisioner", "Provisioning node for role %s with %s", role, driver.Name())
	node, err = driver.ProvisionNode(ctx, role, cfg, accounts)
	if err != nil {
		return nil, nil, err
	}
	if node == nil {
		return nil, nil, fmt.Errorf("driver %s returned no node for role %s", driver.Name(), role)
	}
	return driver, node, nil
}

// Teardown unprovisions every node, in role name order, even if some fail
// or panic. It returns one *TeardownError per failed role, joined.
func (p *Provisioner) Teardown(ctx context.Context, deployment *Deployment) error {
	if deployment == nil {
		return nil
	}
	roles := make([]string, 0, len(deployment.Nodes))
	for role := range deployment.Nodes {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	var errs []error
	for _, role := range roles {
		if err := p.teardownRole(ctx, role, deployment.drivers[role], deployment.Nodes[role]); err != nil {
			logging.Warn("Provisioner", "Unprovisioning role %s failed: %v", role, err)
			errs = append(errs, &TeardownError{Role: role, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (p *Provisioner) teardownRole(ctx context.Context, role string, driver nodedriver.NodeDriver, node nodedriver.Node) (err error) {
	if driver == nil {
		driver = node.Driver()
	}
	if driver == nil {
		return fmt.Errorf("no driver known for role %s", role)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	logging.Info("Provisioner", "Unprovisioning node for role %s", role)
	return driver.UnprovisionNode(ctx, node)
}
