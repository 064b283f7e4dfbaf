// Package imp provides the Imp, an in-process WebFinger diagnostic client.
package imp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"feditest/internal/buildinfo"
	"feditest/internal/nodedriver"
	"feditest/internal/protocols/webfinger"
	"feditest/internal/testplan"
	"feditest/pkg/logging"
)

// DriverName is the name test plans use for the Imp driver.
const DriverName = "ImpInProcessNodeDriver"

// MaxRedirects is how many redirects the Imp follows before giving up.
const MaxRedirects = 10

// VerifyTLSParameter controls certificate verification.
var VerifyTLSParameter = testplan.NodeParameter{
	Name:        "verify_tls",
	Description: "Verify TLS certificates of queried servers.",
	Default:     "false",
	Validate:    testplan.BooleanParseValidate,
}

// TimeoutParameter bounds every HTTP request.
var TimeoutParameter = testplan.NodeParameter{
	Name:        "timeout",
	Description: "Timeout of a single HTTP request, e.g. 10s.",
	Default:     "30s",
	Validate: func(candidate string) (string, bool) {
		d, err := time.ParseDuration(candidate)
		if err != nil || d <= 0 {
			return "", false
		}
		return d.String(), true
	},
}

// Imp is a WebFinger diagnostic client node.
type Imp struct {
	*nodedriver.NodeBase
	client *http.Client
}

// HTTPGet performs a single GET request without following redirects.
func (i *Imp) HTTPGet(ctx context.Context, uri string) (*webfinger.HTTPResponse, error) {
	logging.Debug("Imp", "Performing HTTP GET on %s", uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	// Origin triggers CORS headers in the response.
	req.Header.Set("Origin", "test.example")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s failed: %w", uri, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", uri, err)
	}
	logging.Debug("Imp", "HTTP GET %s returned %d", uri, resp.StatusCode)
	return &webfinger.HTTPResponse{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// PerformWebFingerQuery queries the WebFinger endpoint for resource and
// checks the answer. Redirects are followed manually so each hop is seen.
func (i *Imp) PerformWebFingerQuery(ctx context.Context, resource string, rels []string, server webfinger.Server) (*webfinger.QueryResponse, error) {
	hostname := ""
	if server != nil {
		hostname = server.Hostname()
	}
	queryURI, err := webfinger.ConstructURI(resource, rels, hostname)
	if err != nil {
		return nil, err
	}

	current := queryURI
	var response *webfinger.HTTPResponse
	for hops := 0; ; hops++ {
		response, err = i.HTTPGet(ctx, current)
		if err != nil {
			return nil, err
		}
		if !response.IsRedirect() {
			break
		}
		pair := &webfinger.RequestResponsePair{InitialURI: queryURI, FinalURI: current, Response: response}
		if hops >= MaxRedirects {
			return &webfinger.QueryResponse{Pair: pair, Err: &webfinger.TooManyRedirectsError{URI: queryURI}}, nil
		}
		next, err := resolveLocation(current, response.Header.Get("Location"))
		if err != nil {
			return &webfinger.QueryResponse{Pair: pair, Err: err}, nil
		}
		current = next
	}

	pair := &webfinger.RequestResponsePair{InitialURI: queryURI, FinalURI: current, Response: response}
	var errs []error
	if response.Status != http.StatusOK {
		errs = append(errs, &webfinger.WrongHTTPStatusError{Pair: pair})
	}
	if response.ContentType() != webfinger.JRDContentType {
		errs = append(errs, &webfinger.WrongContentTypeError{Pair: pair})
	}

	jrd, err := webfinger.ParseJRD(response.Body)
	if err != nil {
		errs = append(errs, err)
	} else if err := jrd.Validate(); err != nil {
		errs = append(errs, err)
	}
	return &webfinger.QueryResponse{Pair: pair, JRD: jrd, Err: errors.Join(errs...)}, nil
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("location header is not a valid URI: %q", location)
	}
	return base.ResolveReference(ref).String(), nil
}

// Driver provisions Imps.
type Driver struct {
	nodedriver.DriverBase
}

// NewDriver creates the Imp driver.
func NewDriver() *Driver {
	return &Driver{DriverBase: nodedriver.NewDriverBase(DriverName)}
}

func (d *Driver) NodeParameters() []testplan.NodeParameter {
	return []testplan.NodeParameter{testplan.HostnameParameter, VerifyTLSParameter, TimeoutParameter}
}

func (d *Driver) CreateConfigurationAndAccountManager(role string, node *testplan.ConstellationNode) (*nodedriver.Configuration, nodedriver.AccountManager, error) {
	cfg, err := nodedriver.NewConfiguration(d, node, nil)
	if err != nil {
		return nil, nil, err
	}
	cfg.App = "Imp"
	cfg.AppVersion = buildinfo.Version
	return cfg, nil, nil
}

func (d *Driver) ProvisionNode(ctx context.Context, role string, cfg *nodedriver.Configuration, accounts nodedriver.AccountManager) (nodedriver.Node, error) {
	verify, _ := cfg.Parameter(VerifyTLSParameter.Name)
	timeout := 30 * time.Second
	if raw, ok := cfg.Parameter(TimeoutParameter.Name); ok {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}
	return &Imp{
		NodeBase: nodedriver.NewNodeBase(role, cfg, accounts),
		client:   newHTTPClient(verify == "true", timeout),
	}, nil
}

func (d *Driver) UnprovisionNode(ctx context.Context, node nodedriver.Node) error {
	if err := nodedriver.CheckOwnership(d, node); err != nil {
		return err
	}
	if imp, ok := node.(*Imp); ok {
		imp.client.CloseIdleConnections()
	}
	return nil
}

func newHTTPClient(verifyTLS bool, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !verifyTLS}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
