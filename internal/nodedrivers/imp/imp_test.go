package imp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feditest/internal/buildinfo"
	"feditest/internal/nodedriver"
	"feditest/internal/protocols/webfinger"
	"feditest/internal/testplan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJRD = `{
	"subject": "acct:alice@example.com",
	"links": [{"rel": "self", "type": "application/activity+json", "href": "https://example.com/users/alice"}]
}`

type fakeServer struct {
	*nodedriver.NodeBase
}

func (fakeServer) ObtainAccountIdentifier(role string) (string, error) {
	return "acct:alice@example.com", nil
}

func (fakeServer) ObtainNonExistingAccountIdentifier(role string) (string, error) {
	return "acct:nobody@example.com", nil
}

func serverAt(ts *httptest.Server) webfinger.Server {
	host := strings.TrimPrefix(ts.URL, "https://")
	return fakeServer{nodedriver.NewNodeBase("server", &nodedriver.Configuration{Hostname: host}, nil)}
}

func newImp(t *testing.T) *Imp {
	t.Helper()
	d := NewDriver()
	cfg, accounts, err := d.CreateConfigurationAndAccountManager("client", &testplan.ConstellationNode{NodeDriver: DriverName})
	require.NoError(t, err)
	node, err := d.ProvisionNode(context.Background(), "client", cfg, accounts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.UnprovisionNode(context.Background(), node) })
	return node.(*Imp)
}

func TestPerformWebFingerQuery(t *testing.T) {
	var gotUserAgent, gotOrigin, gotResource string
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotOrigin = r.Header.Get("Origin")
		gotResource = r.URL.Query().Get("resource")
		w.Header().Set("Content-Type", "application/jrd+json; charset=utf-8")
		_, _ = w.Write([]byte(validJRD))
	}))
	defer ts.Close()

	imp := newImp(t)
	resp, err := imp.PerformWebFingerQuery(context.Background(), "acct:alice@example.com", nil, serverAt(ts))
	require.NoError(t, err)
	assert.NoError(t, resp.Err)
	require.NotNil(t, resp.JRD)
	assert.Equal(t, "acct:alice@example.com", resp.JRD.Subject)

	assert.Equal(t, buildinfo.UserAgent(), gotUserAgent)
	assert.Equal(t, "test.example", gotOrigin)
	assert.Equal(t, "acct:alice@example.com", gotResource)
	assert.Equal(t, resp.Pair.InitialURI, resp.Pair.FinalURI)
}

func TestPerformWebFingerQueryFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/webfinger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere?"+r.URL.RawQuery, http.StatusFound)
	})
	mux.HandleFunc("/elsewhere", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/jrd+json")
		_, _ = w.Write([]byte(validJRD))
	})
	ts := httptest.NewTLSServer(mux)
	defer ts.Close()

	resp, err := newImp(t).PerformWebFingerQuery(context.Background(), "acct:alice@example.com", []string{"self"}, serverAt(ts))
	require.NoError(t, err)
	assert.NoError(t, resp.Err)
	assert.Contains(t, resp.Pair.FinalURI, "/elsewhere?resource=")
	assert.NotEqual(t, resp.Pair.InitialURI, resp.Pair.FinalURI)
}

func TestPerformWebFingerQueryGivesUpOnRedirectLoops(t *testing.T) {
	hits := 0
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Redirect(w, r, r.URL.String(), http.StatusFound)
	}))
	defer ts.Close()

	resp, err := newImp(t).PerformWebFingerQuery(context.Background(), "acct:alice@example.com", nil, serverAt(ts))
	require.NoError(t, err)
	var tooMany *webfinger.TooManyRedirectsError
	assert.True(t, errors.As(resp.Err, &tooMany))
	assert.Equal(t, MaxRedirects+1, hits)
}

func TestPerformWebFingerQueryReportsEveryProblem(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html>not here</html>"))
	}))
	defer ts.Close()

	resp, err := newImp(t).PerformWebFingerQuery(context.Background(), "acct:alice@example.com", nil, serverAt(ts))
	require.NoError(t, err)
	require.Error(t, resp.Err)

	var status *webfinger.WrongHTTPStatusError
	var contentType *webfinger.WrongContentTypeError
	var jrd *webfinger.JRDError
	assert.True(t, errors.As(resp.Err, &status))
	assert.True(t, errors.As(resp.Err, &contentType))
	assert.True(t, errors.As(resp.Err, &jrd))
	assert.Nil(t, resp.JRD)
}

func TestHTTPGetDoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/target", http.StatusMovedPermanently)
	}))
	defer ts.Close()

	resp, err := newImp(t).HTTPGet(context.Background(), ts.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.Status)
	assert.True(t, resp.IsRedirect())
}

func TestImpIsDiagClient(t *testing.T) {
	var node nodedriver.Node = newImp(t)
	_, ok := node.(webfinger.DiagClient)
	assert.True(t, ok)
	assert.Equal(t, "Imp", node.Config().App)
}

func TestInvalidTimeout(t *testing.T) {
	_, _, err := NewDriver().CreateConfigurationAndAccountManager("client", &testplan.ConstellationNode{
		Parameters: map[string]any{"timeout": "soon"},
	})
	assert.Error(t, err)
}
