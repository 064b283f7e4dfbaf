package sandbox

import (
	"context"
	"testing"

	"feditest/internal/nodedriver"
	"feditest/internal/protocols/sandbox"
	"feditest/internal/testplan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provision(t *testing.T, d nodedriver.NodeDriver, role string) nodedriver.Node {
	t.Helper()
	cfg, accounts, err := d.CreateConfigurationAndAccountManager(role, &testplan.ConstellationNode{NodeDriver: d.Name()})
	require.NoError(t, err)
	node, err := d.ProvisionNode(context.Background(), role, cfg, accounts)
	require.NoError(t, err)
	return node
}

func TestServers(t *testing.T) {
	tests := []struct {
		driver *Driver
		want   int
	}{
		{NewServer1Driver(), 20},
		{NewServer2Driver(), 20},
		{NewServer3FaultyDriver(), 17},
	}
	client := provision(t, NewClientDriver(), "client").(sandbox.MultClient)

	for _, tt := range tests {
		t.Run(tt.driver.Name(), func(t *testing.T) {
			server, ok := provision(t, tt.driver, "server").(sandbox.MultServer)
			require.True(t, ok)

			require.NoError(t, server.StartLogging())
			c, err := client.CauseMult(server, 4, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)

			log, err := server.GetAndClearLog()
			require.NoError(t, err)
			require.Len(t, log, 1)
			assert.Equal(t, sandbox.LogEvent{When: log[0].When, A: 4, B: 5, C: tt.want}, log[0])

			assert.NoError(t, tt.driver.UnprovisionNode(context.Background(), server))
		})
	}
}

func TestClientIsNotAServer(t *testing.T) {
	node := provision(t, NewClientDriver(), "client")
	_, ok := node.(sandbox.MultServer)
	assert.False(t, ok)
	assert.Equal(t, ClientDriverName, node.Config().App)
}

func TestUnprovisionForeignNode(t *testing.T) {
	node := provision(t, NewServer1Driver(), "server")
	assert.Error(t, NewServer2Driver().UnprovisionNode(context.Background(), node))
}

func TestDrivers(t *testing.T) {
	reg := nodedriver.NewRegistry()
	for _, d := range Drivers() {
		require.NoError(t, reg.Register(d))
	}
	assert.Equal(t, []string{
		ClientDriverName,
		Server1DriverName,
		Server2DriverName,
		Server3FaultyDriverName,
	}, reg.Names())
}
