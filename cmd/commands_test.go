package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feditest/internal/nodedrivers/imp"
	"feditest/internal/nodedrivers/sandbox"
	"feditest/internal/testplan"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePlan(t *testing.T, serverDriver string, tests ...string) string {
	t.Helper()
	specs := make([]string, len(tests))
	for i, name := range tests {
		specs[i] = fmt.Sprintf(`{"name": %q}`, name)
	}
	plan := fmt.Sprintf(`{
  "name": "sandbox plan",
  "type": "feditest-testplan",
  "sessions": [{
    "name": "mult",
    "constellation": {
      "roles": {
        "client": {"nodedriver": %q},
        "server": {"nodedriver": %q}
      }
    },
    "tests": [%s]
  }]
}`, sandbox.ClientDriverName, serverDriver, strings.Join(specs, ", "))
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0644))
	return path
}

func TestListTests(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, newListTestsCmd(), "--output", "json", "--filter", "^sandbox::")
		require.NoError(t, err)

		var items []testInfo
		require.NoError(t, json.Unmarshal([]byte(stdout), &items))
		require.Len(t, items, 3)
		assert.Equal(t, "sandbox::multiply", items[0].Name)
		assert.Equal(t, "sandbox", items[0].TestSet)
		assert.Equal(t, "client", items[0].Roles[0].Name)
	})

	t.Run("table", func(t *testing.T) {
		stdout, _, err := execute(t, newListTestsCmd(), "--skip", "^sandbox::")
		require.NoError(t, err)
		assert.Contains(t, stdout, "webfinger::validJSON")
		assert.NotContains(t, stdout, "sandbox::multiply")
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := execute(t, newListTestsCmd(), "--output", "xml")
		assert.Error(t, err)
	})
}

func TestListNodeDrivers(t *testing.T) {
	stdout, _, err := execute(t, newListNodeDriversCmd(), "-o", "json")
	require.NoError(t, err)

	var items []driverInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &items))
	byName := map[string]driverInfo{}
	for _, item := range items {
		byName[item.Name] = item
	}
	require.Contains(t, byName, imp.DriverName)
	require.Contains(t, byName, sandbox.Server1DriverName)

	var params []string
	for _, p := range byName[imp.DriverName].Parameters {
		params = append(params, p.Name)
	}
	assert.Contains(t, params, imp.VerifyTLSParameter.Name)
}

func TestGenerateSessionTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "session.json")
	_, _, err := execute(t, newGenerateSessionTemplateCmd(), "--filter", "^sandbox::", "--name", "mult", "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	session, err := testplan.LoadSession(f)
	require.NoError(t, err)

	assert.Equal(t, "mult", session.Name)
	assert.True(t, session.IsTemplate())
	assert.Equal(t, []string{"client", "server"}, session.Constellation.RoleNames())
	require.Len(t, session.Tests, 3)
	assert.Equal(t, "sandbox::multiply", session.Tests[0].Name)
	assert.Equal(t, "sandbox::multiplyNegative", session.Tests[2].Name)
}

func TestGenerateSessionTemplate_NoTests(t *testing.T) {
	_, _, err := execute(t, newGenerateSessionTemplateCmd(), "--filter", "^nothing-matches$")
	assert.Error(t, err)
}

func TestCheckTestPlan(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writePlan(t, sandbox.Server1DriverName, "sandbox::multiply")
		stdout, _, err := execute(t, newCheckTestPlanCmd(), "--testplan", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Test plan sandbox plan is valid: 1 sessions")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writePlan(t, "NoSuchDriver", "sandbox::multiply", "sandbox::nope")
		stdout, _, err := execute(t, newCheckTestPlanCmd(), "--testplan", path)
		require.Error(t, err)
		assert.Equal(t, ExitCodeInvalidPlan, getExitCode(err))
		assert.Contains(t, stdout, "has 2 problems")
		assert.Contains(t, stdout, "NoSuchDriver")
		assert.Contains(t, stdout, "sandbox::nope")
	})
}

func TestRun(t *testing.T) {
	t.Run("passing", func(t *testing.T) {
		path := writePlan(t, sandbox.Server1DriverName, "sandbox::multiply", "sandbox::multiplyNegative")
		transcriptPath := filepath.Join(t.TempDir(), "transcript.json")

		stdout, _, err := execute(t, newRunCmd(), "--testplan", path, "--json", transcriptPath)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stdout, "TAP version 14\n# test plan: sandbox plan\n# session: mult\n"))
		assert.Contains(t, stdout, "ok 1 - sandbox::multiply\n")
		assert.Contains(t, stdout, "ok 2 - sandbox::multiplyNegative\n")
		assert.True(t, strings.HasSuffix(stdout, "1..2\n"))

		data, err := os.ReadFile(transcriptPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"result": "PASSED"`)
	})

	t.Run("failing", func(t *testing.T) {
		path := writePlan(t, sandbox.Server3FaultyDriverName, "sandbox::multiply", "sandbox::multiplyIsLogged")
		stdout, stderr, err := execute(t, newRunCmd(), "--testplan", path, "--summary")
		require.Error(t, err)
		assert.Equal(t, ExitCodeTestsFailed, getExitCode(err))
		assert.Contains(t, stdout, "not ok 1 - sandbox::multiply\n")
		assert.Contains(t, stdout, "    registry.Failure: ")
		assert.Contains(t, stdout, "ok 2 - sandbox::multiplyIsLogged\n")
		assert.Contains(t, stderr, "sandbox::multiply")
	})

	t.Run("filter", func(t *testing.T) {
		path := writePlan(t, sandbox.Server3FaultyDriverName, "sandbox::multiply", "sandbox::multiplyIsLogged")
		stdout, _, err := execute(t, newRunCmd(), "--testplan", path, "--filter", "IsLogged$")
		require.NoError(t, err)
		assert.Contains(t, stdout, "ok 1 - sandbox::multiply # SKIP excluded by filter\n")
	})

	t.Run("tap file", func(t *testing.T) {
		path := writePlan(t, sandbox.Server2DriverName, "sandbox::multiply")
		tapPath := filepath.Join(t.TempDir(), "out.tap")
		stdout, _, err := execute(t, newRunCmd(), "--testplan", path, "--tap", tapPath, "--summary")
		require.NoError(t, err)
		assert.Contains(t, stdout, "sandbox::multiply")

		data, err := os.ReadFile(tapPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "ok 1 - sandbox::multiply\n")
	})

	t.Run("invalid plan", func(t *testing.T) {
		path := writePlan(t, "NoSuchDriver", "sandbox::multiply")
		stdout, _, err := execute(t, newRunCmd(), "--testplan", path)
		require.Error(t, err)
		assert.Equal(t, ExitCodeInvalidPlan, getExitCode(err))
		assert.Empty(t, stdout)
	})

	t.Run("template values", func(t *testing.T) {
		path := writePlan(t, `{{ .Values.server }}`, "sandbox::multiply")
		stdout, _, err := execute(t, newRunCmd(), "--testplan", path, "--set", "server="+sandbox.Server1DriverName)
		require.NoError(t, err)
		assert.Contains(t, stdout, "#       driver: "+sandbox.Server1DriverName+"\n")
	})

	t.Run("literal braces without template values", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "plan.yaml", fmt.Sprintf(`
name: braces
sessions:
  - constellation:
      roles:
        client:
          nodedriver: %s
        server:
          nodedriver: %s
          parameters:
            password: "p{{w}}rd"
    tests:
      - name: sandbox::multiply
`, sandbox.ClientDriverName, sandbox.Server1DriverName))
		stdout, _, err := execute(t, newRunCmd(), "--testplan", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "ok 1 - sandbox::multiply\n")

		_, _, err = execute(t, newCheckTestPlanCmd(), "--testplan", path, "--template")
		require.Error(t, err)
	})

	t.Run("missing plan", func(t *testing.T) {
		_, _, err := execute(t, newRunCmd(), "--testplan", filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.Equal(t, ExitCodeError, getExitCode(err))
	})
}

func TestParseSetValues(t *testing.T) {
	values, err := parseSetValues([]string{"host=example.com", "empty=", "host=other.example", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"host": "other.example", "empty": "", "eq": "a=b"}, values)

	for _, bad := range []string{"novalue", "=x", " =x"} {
		_, err := parseSetValues([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestExamplePlans(t *testing.T) {
	values := []string{"--set", "host=social.example"}

	stdout, _, err := execute(t, newCheckTestPlanCmd(), append([]string{"--testplan", "../testplans/sandbox.json"}, values...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid: 2 sessions")

	stdout, _, err = execute(t, newCheckTestPlanCmd(), "--testplan", "../testplans/sandbox-faulty.yaml", "--template")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid: 1 sessions")

	stdout, _, err = execute(t, newCheckTestPlanCmd(), append([]string{"--testplan", "../testplans/webfinger-saas.yaml"}, values...)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid: 1 sessions")

	stdout, _, err = execute(t, newRunCmd(), "--testplan", "../testplans/sandbox.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok 5 - sandbox::multiplyNegative # SKIP Implementation2 only handles non-negative factors\n")
	assert.True(t, strings.HasSuffix(stdout, "1..6\n"))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_SessionTemplate(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "session.json")
	_, _, err := execute(t, newGenerateSessionTemplateCmd(), "--filter", "^sandbox::multiply$", "--name", "mult", "--out", template)
	require.NoError(t, err)

	good := writeFile(t, dir, "good.yaml", fmt.Sprintf(`
roles:
  client:
    nodedriver: %s
  server:
    nodedriver: %s
`, sandbox.ClientDriverName, sandbox.Server1DriverName))
	faulty := writeFile(t, dir, "faulty.yaml", fmt.Sprintf(`
name: faulty
roles:
  client:
    nodedriver: %s
  server:
    nodedriver: %s
`, sandbox.ClientDriverName, sandbox.Server3FaultyDriverName))

	stdout, _, err := execute(t, newRunCmd(), "--session-template", template, "--constellation", good, "--constellation", faulty)
	require.Error(t, err)
	assert.Equal(t, ExitCodeTestsFailed, getExitCode(err))
	assert.Contains(t, stdout, "# test plan: mult\n# session: mult/good\n")
	assert.Contains(t, stdout, "ok 1 - sandbox::multiply\n")
	assert.Contains(t, stdout, "# session: mult/faulty\n")
	assert.Contains(t, stdout, "not ok 2 - sandbox::multiply\n")

	t.Run("missing role", func(t *testing.T) {
		clientOnly := writeFile(t, dir, "client.yaml", fmt.Sprintf("roles:\n  client:\n    nodedriver: %s\n", sandbox.ClientDriverName))
		_, _, err := execute(t, newRunCmd(), "--session-template", template, "--constellation", clientOnly)
		require.Error(t, err)
		assert.Equal(t, ExitCodeInvalidPlan, getExitCode(err))
	})

	t.Run("no constellation", func(t *testing.T) {
		_, _, err := execute(t, newRunCmd(), "--session-template", template)
		assert.Error(t, err)
	})

	t.Run("both sources", func(t *testing.T) {
		_, _, err := execute(t, newRunCmd(), "--session-template", template, "--testplan", template)
		assert.Error(t, err)
	})

	t.Run("saved as plan", func(t *testing.T) {
		out := filepath.Join(dir, "plan.yaml")
		_, _, err := execute(t, newCheckTestPlanCmd(), "--session-template", template, "--constellation", good, "--out", out)
		require.NoError(t, err)

		plan, err := testplan.LoadFile(out)
		require.NoError(t, err)
		require.Len(t, plan.Sessions, 1)
		assert.Equal(t, "mult/good", plan.Sessions[0].Name)
		assert.Equal(t, sandbox.Server1DriverName, plan.Sessions[0].Constellation.Roles["server"].NodeDriver)
	})
}

func TestCheckTestPlan_NoSource(t *testing.T) {
	_, _, err := execute(t, newCheckTestPlanCmd())
	assert.Error(t, err)
}
