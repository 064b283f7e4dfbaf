// Package nodedrivers registers the node drivers built into feditest.
package nodedrivers

import (
	"fmt"

	"feditest/internal/nodedriver"
	"feditest/internal/nodedrivers/imp"
	"feditest/internal/nodedrivers/saas"
	"feditest/internal/nodedrivers/sandbox"
)

// RegisterDefaults adds every built-in driver to reg. prompter is used by
// drivers that need to ask the tester for information.
func RegisterDefaults(reg *nodedriver.Registry, prompter *nodedriver.Prompter) error {
	drivers := append(sandbox.Drivers(), imp.NewDriver(), saas.NewDriver(prompter))
	for _, d := range drivers {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("failed to register node driver: %w", err)
		}
	}
	return nil
}
