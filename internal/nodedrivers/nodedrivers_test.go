package nodedrivers

import (
	"io"
	"strings"
	"testing"

	"feditest/internal/nodedriver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaults(t *testing.T) {
	reg := nodedriver.NewRegistry()
	prompter := nodedriver.NewPrompter(nil, io.Discard)
	require.NoError(t, RegisterDefaults(reg, prompter))

	for _, name := range []string{
		"ImpInProcessNodeDriver",
		"SaasWebFingerServerNodeDriver",
		"SandboxMultClientDriver_ImplementationA",
		"SandboxMultServerDriver_Implementation1",
		"SandboxMultServerDriver_Implementation2",
		"SandboxMultServerDriver_Implementation3_Faulty",
	} {
		assert.True(t, reg.HasNodeDriver(name), name)
	}
	assert.Len(t, reg.Names(), 6)

	err := RegisterDefaults(reg, prompter)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already registered"))
}
