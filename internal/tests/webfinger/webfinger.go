// Package webfinger holds tests of WebFinger servers.
package webfinger

import (
	"context"
	"net/http"
	"net/url"

	"feditest/internal/protocols/webfinger"
	"feditest/internal/registry"
)

// validJSON checks the server answers a query for an existing account
// with a well-formed JRD.
func validJSON(ctx context.Context, client webfinger.Client, server webfinger.Server) error {
	id, err := server.ObtainAccountIdentifier("role0")
	if err != nil {
		return err
	}
	resp, err := client.PerformWebFingerQuery(ctx, id, nil, server)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return registry.Failf("query for %s: %w", id, resp.Err)
	}
	return nil
}

func subjectOrAliasMatches(ctx context.Context, client webfinger.Client, server webfinger.Server) error {
	id, err := server.ObtainAccountIdentifier("role0")
	if err != nil {
		return err
	}
	resp, err := client.PerformWebFingerQuery(ctx, id, nil, server)
	if err != nil {
		return err
	}
	if resp.JRD == nil {
		return registry.Failf("query for %s returned no JRD: %v", id, resp.Err)
	}
	if resp.JRD.Subject == id {
		return nil
	}
	for _, alias := range resp.JRD.Aliases {
		if alias == id {
			return nil
		}
	}
	return registry.Failf("neither subject %q nor aliases %v match %s", resp.JRD.Subject, resp.JRD.Aliases, id)
}

func unknownAccountNotFound(ctx context.Context, client webfinger.Client, server webfinger.Server) error {
	id, err := server.ObtainNonExistingAccountIdentifier("role0")
	if err != nil {
		return err
	}
	resp, err := client.PerformWebFingerQuery(ctx, id, nil, server)
	if err != nil {
		return err
	}
	return registry.AssertEqual(resp.Pair.Response.Status, http.StatusNotFound, "HTTP status for "+id)
}

func malformedResourceNotPercentEncoded(ctx context.Context, client webfinger.DiagClient, server webfinger.Server) error {
	id, err := server.ObtainAccountIdentifier("role0")
	if err != nil {
		return err
	}
	resp, err := client.HTTPGet(ctx, "https://"+server.Hostname()+"/.well-known/webfinger?resource="+id)
	if err != nil {
		return err
	}
	return registry.AssertEqual(resp.Status, http.StatusBadRequest, "HTTP status")
}

func malformedResourceDoubleEquals(ctx context.Context, client webfinger.DiagClient, server webfinger.Server) error {
	id, err := server.ObtainAccountIdentifier("role0")
	if err != nil {
		return err
	}
	resp, err := client.HTTPGet(ctx, "https://"+server.Hostname()+"/.well-known/webfinger?resource=="+url.QueryEscape(id))
	if err != nil {
		return err
	}
	return registry.AssertEqual(resp.Status, http.StatusBadRequest, "HTTP status")
}

// Register adds the WebFinger tests to reg.
func Register(reg *registry.Registry) error {
	defs := []registry.Definition{
		registry.TwoNodes[webfinger.Client, webfinger.Server]("client", "server", validJSON).
			WithDescription("A query for an existing account returns a valid JRD."),
		registry.TwoNodes[webfinger.Client, webfinger.Server]("client", "server", subjectOrAliasMatches).
			WithDescription("The JRD names the queried account as subject or alias."),
		registry.TwoNodes[webfinger.Client, webfinger.Server]("client", "server", unknownAccountNotFound).
			WithDescription("A query for a non-existing account returns 404."),
		registry.TwoNodes[webfinger.DiagClient, webfinger.Server]("client", "server", malformedResourceNotPercentEncoded).
			WithDescription("A resource parameter that is not percent-encoded is rejected with 400."),
		registry.TwoNodes[webfinger.DiagClient, webfinger.Server]("client", "server", malformedResourceDoubleEquals).
			WithDescription("A resource parameter introduced by == is rejected with 400."),
	}
	for _, def := range defs {
		if _, err := reg.Register(def.WithTestSet("webfinger")); err != nil {
			return err
		}
	}
	return nil
}
