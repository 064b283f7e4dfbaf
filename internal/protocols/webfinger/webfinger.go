// Package webfinger defines the WebFinger (RFC 7033) node capabilities,
// the JRD document model and the helpers clients use to construct queries
// and judge responses.
package webfinger

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"feditest/internal/nodedriver"
)

// JRDContentType is the media type a WebFinger server must answer with.
const JRDContentType = "application/jrd+json"

// Server is a node that serves WebFinger queries.
type Server interface {
	nodedriver.Node
	// ObtainAccountIdentifier returns the acct: or https: URI of an
	// account that exists on the server.
	ObtainAccountIdentifier(role string) (string, error)
	// ObtainNonExistingAccountIdentifier returns the URI of an account
	// that does not exist on the server.
	ObtainNonExistingAccountIdentifier(role string) (string, error)
}

// Client is a node that performs WebFinger queries.
type Client interface {
	nodedriver.Node
	// PerformWebFingerQuery queries server, or the host derived from
	// resource if server is nil. Protocol problems with the answer are
	// reported in the response's Err, transport problems as the error.
	PerformWebFingerQuery(ctx context.Context, resource string, rels []string, server Server) (*QueryResponse, error)
}

// DiagClient is a Client that can also issue arbitrary HTTP requests,
// including malformed WebFinger queries.
type DiagClient interface {
	Client
	HTTPGet(ctx context.Context, uri string) (*HTTPResponse, error)
}

// HTTPResponse is a fully read HTTP response.
type HTTPResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType returns the media type without parameters.
func (r *HTTPResponse) ContentType() string {
	raw := r.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
	}
	return mediaType
}

// IsRedirect reports whether the response redirects elsewhere.
func (r *HTTPResponse) IsRedirect() bool {
	switch r.Status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return r.Header.Get("Location") != ""
	}
	return false
}

// RequestResponsePair ties a final response to the request that started
// the exchange and the request that produced it after redirects.
type RequestResponsePair struct {
	InitialURI string
	FinalURI   string
	Response   *HTTPResponse
}

// QueryResponse is the result of a WebFinger query.
type QueryResponse struct {
	Pair *RequestResponsePair
	JRD  *JRD
	// Err holds every protocol violation found, joined.
	Err error
}

// ConstructURI builds the WebFinger query URI for resource. If hostname is
// empty, the host is taken from the resource.
func ConstructURI(resource string, rels []string, hostname string) (string, error) {
	if hostname == "" {
		host, err := hostOf(resource)
		if err != nil {
			return "", err
		}
		hostname = host
	}

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(hostname)
	b.WriteString("/.well-known/webfinger?resource=")
	b.WriteString(url.QueryEscape(resource))
	for _, rel := range rels {
		b.WriteString("&rel=")
		b.WriteString(url.QueryEscape(rel))
	}
	return b.String(), nil
}

func hostOf(resource string) (string, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return "", fmt.Errorf("invalid resource %q: %w", resource, err)
	}
	switch u.Scheme {
	case "acct":
		at := strings.LastIndexByte(u.Opaque, '@')
		if at < 0 || at == len(u.Opaque)-1 {
			return "", fmt.Errorf("resource %q has no host", resource)
		}
		return u.Opaque[at+1:], nil
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("resource %q has no host", resource)
		}
		return u.Host, nil
	default:
		return "", fmt.Errorf("cannot determine host of resource %q", resource)
	}
}

// WrongHTTPStatusError reports a status other than 200.
type WrongHTTPStatusError struct {
	Pair *RequestResponsePair
}

func (e *WrongHTTPStatusError) Error() string {
	return fmt.Sprintf("wrong HTTP status %d from %s", e.Pair.Response.Status, e.Pair.FinalURI)
}

// WrongContentTypeError reports a content type other than JRDContentType.
type WrongContentTypeError struct {
	Pair *RequestResponsePair
}

func (e *WrongContentTypeError) Error() string {
	return fmt.Sprintf("wrong content type %q from %s", e.Pair.Response.Header.Get("Content-Type"), e.Pair.FinalURI)
}

// TooManyRedirectsError reports a redirect chain the client gave up on.
type TooManyRedirectsError struct {
	URI string
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects starting at %s", e.URI)
}
