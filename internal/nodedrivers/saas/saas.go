// Package saas drives WebFinger servers that are already running somewhere,
// described entirely by the test plan. Anything the plan leaves out is
// asked of the tester.
package saas

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"feditest/internal/nodedriver"
	"feditest/internal/testplan"
	"feditest/pkg/logging"

	"github.com/google/uuid"
)

// DriverName is the name test plans use for this driver.
const DriverName = "SaasWebFingerServerNodeDriver"

var (
	// ReadyRetryCountParameter enables a TCP readiness poll when above zero.
	ReadyRetryCountParameter = testplan.NodeParameter{
		Name:        "ready_retry_count",
		Description: "How often to check the server accepts connections before giving up. 0 disables the check.",
		Default:     "0",
		Validate:    nonNegativeInt,
	}
	// ReadyIntervalParameter is the pause between readiness checks.
	ReadyIntervalParameter = testplan.NodeParameter{
		Name:        "ready_interval",
		Description: "Pause between readiness checks, e.g. 2s.",
		Default:     "1s",
		Validate:    positiveDuration,
	}
)

func nonNegativeInt(candidate string) (string, bool) {
	n, err := strconv.Atoi(candidate)
	if err != nil || n < 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}

func positiveDuration(candidate string) (string, bool) {
	d, err := time.ParseDuration(candidate)
	if err != nil || d <= 0 {
		return "", false
	}
	return d.String(), true
}

// Server is a WebFinger server whose accounts are known from the plan.
type Server struct {
	*nodedriver.NodeBase
	prompter *nodedriver.Prompter
}

// ObtainAccountIdentifier returns the URI of the account allocated to role,
// built from its userid if the plan gives no URI.
func (s *Server) ObtainAccountIdentifier(role string) (string, error) {
	if s.Accounts() != nil {
		account, err := s.Accounts().ObtainAccountByRole(role)
		if err == nil {
			if account.URI != "" {
				return account.URI, nil
			}
			if account.Userid != "" {
				return s.acctURI(account.Userid), nil
			}
		}
	}
	return s.prompter.Prompt(
		fmt.Sprintf("URI of an existing account for role %q on %s: ", role, s.Hostname()),
		"",
		testplan.HTTPHTTPSAcctURIValidate)
}

// ObtainNonExistingAccountIdentifier returns the URI of a non-existing
// account. Without one in the plan, a random user name is made up.
func (s *Server) ObtainNonExistingAccountIdentifier(role string) (string, error) {
	if s.Accounts() != nil {
		account, err := s.Accounts().ObtainNonExistingAccountByRole(role)
		if err == nil {
			if account.URI != "" {
				return account.URI, nil
			}
			if account.Userid != "" {
				return s.acctURI(account.Userid), nil
			}
		}
	}
	return s.acctURI("does-not-exist-" + uuid.NewString()), nil
}

func (s *Server) acctURI(userid string) string {
	return "acct:" + userid + "@" + s.Hostname()
}

// Driver provisions Server nodes.
type Driver struct {
	nodedriver.DriverBase
	prompter *nodedriver.Prompter
	dialer   func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDriver creates the driver. Missing information is asked for through
// prompter.
func NewDriver(prompter *nodedriver.Prompter) *Driver {
	return &Driver{
		DriverBase: nodedriver.NewDriverBase(DriverName),
		prompter:   prompter,
		dialer:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}
}

func (d *Driver) NodeParameters() []testplan.NodeParameter {
	return []testplan.NodeParameter{
		testplan.HostnameParameter,
		testplan.AppParameter,
		testplan.AppVersionParameter,
		ReadyRetryCountParameter,
		ReadyIntervalParameter,
	}
}

func (d *Driver) AccountFields() []testplan.AccountField {
	return []testplan.AccountField{
		{Name: "userid", Description: "User id of the account, without host."},
		{Name: "uri", Description: "acct: or https: URI of the account.", Validate: testplan.HTTPHTTPSAcctURIValidate},
		{Name: "role", Description: "Account role the account is used for."},
	}
}

func (d *Driver) NonExistingAccountFields() []testplan.AccountField {
	return d.AccountFields()
}

func (d *Driver) CreateConfigurationAndAccountManager(role string, node *testplan.ConstellationNode) (*nodedriver.Configuration, nodedriver.AccountManager, error) {
	cfg, err := nodedriver.NewConfiguration(d, node, nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Hostname == "" {
		hostname, err := d.prompter.Prompt(
			fmt.Sprintf("Enter the hostname of the WebFinger server for role %q: ", role),
			"",
			testplan.HostnameValidate)
		if err != nil {
			return nil, nil, fmt.Errorf("no hostname for role %s: %w", role, err)
		}
		cfg.Hostname = hostname
		cfg.Parameters[testplan.HostnameParameter.Name] = hostname
	}
	return cfg, nodedriver.NewAccountManagerFor(node), nil
}

func (d *Driver) ProvisionNode(ctx context.Context, role string, cfg *nodedriver.Configuration, accounts nodedriver.AccountManager) (nodedriver.Node, error) {
	if err := d.awaitReady(ctx, cfg); err != nil {
		return nil, err
	}
	logging.Info("SaaS", "Using WebFinger server %s for role %s", cfg.Hostname, role)
	return &Server{NodeBase: nodedriver.NewNodeBase(role, cfg, accounts), prompter: d.prompter}, nil
}

func (d *Driver) UnprovisionNode(ctx context.Context, node nodedriver.Node) error {
	return nodedriver.CheckOwnership(d, node)
}

func (d *Driver) awaitReady(ctx context.Context, cfg *nodedriver.Configuration) error {
	raw, _ := cfg.Parameter(ReadyRetryCountParameter.Name)
	retries, _ := strconv.Atoi(raw)
	if retries <= 0 {
		return nil
	}
	interval := time.Second
	if raw, ok := cfg.Parameter(ReadyIntervalParameter.Name); ok {
		if parsed, err := time.ParseDuration(raw); err == nil {
			interval = parsed
		}
	}

	address := cfg.Hostname
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, "443")
	}
	_, err := nodedriver.PollUntil(ctx, retries, interval, func(ctx context.Context) (struct{}, bool, error) {
		conn, err := d.dialer(ctx, "tcp", address)
		if err != nil {
			logging.Debug("SaaS", "Server %s not reachable yet: %v", address, err)
			return struct{}{}, false, nil
		}
		conn.Close()
		return struct{}{}, true, nil
	}, fmt.Sprintf("server %s does not accept connections", address))
	return err
}
