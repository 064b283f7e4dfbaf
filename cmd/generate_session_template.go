package cmd

import (
	"fmt"
	"strings"

	"feditest/internal/registry"
	"feditest/internal/testplan"

	"github.com/spf13/cobra"
)

func newGenerateSessionTemplateCmd() *cobra.Command {
	var (
		selection testSelection
		name      string
		out       string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "generate-session-template",
		Short: "Generate a session template running the selected tests",
		Long: `Generates a session template with one test spec per selected test,
sorted by name, and one unbound constellation role per distinct role name
the tests use. Bind the roles to node drivers to turn it into a session,
or run it against constellations with
  feditest run --session-template <file> --constellation <file>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(selection.testsDirs)
			if err != nil {
				return err
			}
			session := sessionTemplate(name, env.tests.Select(selection.filter))
			if len(session.Tests) == 0 {
				return fmt.Errorf("no tests selected")
			}

			if out != "" {
				return session.Save(out)
			}

			var data []byte
			switch strings.ToLower(format) {
			case "json":
				data, err = session.AsJSON()
			case "yaml":
				data, err = session.AsYAML()
			default:
				return fmt.Errorf("unknown format %q, must be json or yaml", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	selection.addFlags(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Name of the generated session")
	cmd.Flags().StringVar(&out, "out", "", "Write the template to this file instead of stdout (YAML for .yaml/.yml, JSON otherwise)")
	cmd.Flags().StringVar(&format, "format", "json", "Format when writing to stdout: json or yaml")
	return cmd
}

// sessionTemplate builds a session running tests, whose constellation has
// one unbound role per role name the tests use.
func sessionTemplate(name string, tests []*registry.Test) *testplan.Session {
	session := &testplan.Session{
		Name:          name,
		Constellation: &testplan.Constellation{Roles: map[string]*testplan.ConstellationNode{}},
	}
	for _, t := range tests {
		session.Tests = append(session.Tests, &testplan.TestSpec{Name: t.Name})
		for _, role := range t.RoleNames() {
			session.Constellation.Roles[role] = nil
		}
	}
	return session
}
