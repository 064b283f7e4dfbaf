// Package sandbox holds the tests of the toy Mult protocol.
package sandbox

import (
	"context"

	"feditest/internal/protocols/sandbox"
	"feditest/internal/registry"
)

func multiply(ctx context.Context, client sandbox.MultClient, server sandbox.MultServer) error {
	c, err := client.CauseMult(server, 4, 5)
	if err != nil {
		return err
	}
	return registry.AssertEqual(c, 20, "4 * 5")
}

func multiplyNegative(ctx context.Context, client sandbox.MultClient, server sandbox.MultServer) error {
	c, err := client.CauseMult(server, -3, 7)
	if err != nil {
		return err
	}
	return registry.AssertEqual(c, -21, "-3 * 7")
}

func multiplyIsLogged(ctx context.Context, client sandbox.MultClient, server sandbox.MultServer) error {
	if err := server.StartLogging(); err != nil {
		return err
	}
	c, err := client.CauseMult(server, 3, 6)
	if err != nil {
		return err
	}
	log, err := server.GetAndClearLog()
	if err != nil {
		return err
	}
	if err := registry.AssertEqual(len(log), 1, "number of logged calls"); err != nil {
		return err
	}
	event := log[0]
	return registry.Assert(event.A == 3 && event.B == 6 && event.C == c,
		"logged call %d * %d = %d does not match 3 * 6 = %d", event.A, event.B, event.C, c)
}

// Register adds the sandbox tests to reg.
func Register(reg *registry.Registry) error {
	defs := []registry.Definition{
		registry.TwoNodes[sandbox.MultClient, sandbox.MultServer]("client", "server", multiply).
			WithDescription("The server multiplies two positive numbers correctly."),
		registry.TwoNodes[sandbox.MultClient, sandbox.MultServer]("client", "server", multiplyNegative).
			WithDescription("The server multiplies a negative and a positive number correctly."),
		registry.TwoNodes[sandbox.MultClient, sandbox.MultServer]("client", "server", multiplyIsLogged).
			WithDescription("The server logs the multiplications it performs."),
	}
	for _, def := range defs {
		if _, err := reg.Register(def.WithTestSet("sandbox")); err != nil {
			return err
		}
	}
	return nil
}
