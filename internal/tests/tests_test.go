package tests

import (
	"testing"

	"feditest/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAll(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterAll(reg))

	sets := reg.TestSets()
	require.Len(t, sets, 2)
	assert.Equal(t, "sandbox", sets[0].Name)
	assert.Equal(t, "webfinger", sets[1].Name)
	assert.Len(t, reg.Names(), 8)

	roles, ok := reg.LocalRoleNames("webfinger::validJSON")
	require.True(t, ok)
	assert.Equal(t, []string{"client", "server"}, roles)

	assert.Error(t, RegisterAll(reg))
}
