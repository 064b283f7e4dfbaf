// Package tests registers the tests compiled into feditest.
package tests

import (
	"fmt"

	"feditest/internal/registry"
	"feditest/internal/tests/sandbox"
	"feditest/internal/tests/webfinger"
)

var suites = []struct {
	name     string
	register func(*registry.Registry) error
}{
	{"sandbox", sandbox.Register},
	{"webfinger", webfinger.Register},
}

// RegisterAll adds every built-in test to reg.
func RegisterAll(reg *registry.Registry) error {
	for _, suite := range suites {
		if err := suite.register(reg); err != nil {
			return fmt.Errorf("failed to register %s tests: %w", suite.name, err)
		}
	}
	return nil
}
