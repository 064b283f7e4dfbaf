package cmd

import (
	"fmt"
	"strings"

	"feditest/internal/formatting"
	"feditest/internal/registry"

	"github.com/spf13/cobra"
)

type testInfo struct {
	Name        string          `json:"name" yaml:"name"`
	TestSet     string          `json:"testset" yaml:"testset"`
	Roles       []registry.Role `json:"roles" yaml:"roles"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

func newListTestsCmd() *cobra.Command {
	var (
		selection testSelection
		output    string
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "list-tests",
		Short: "List the available tests",
		Long: `Lists the built-in tests and the tests found in --testsdir plugins,
with the roles each test needs and the test set it belongs to.

Examples:
  feditest list-tests
  feditest list-tests --filter '^webfinger::' --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}
			env, err := newEnvironment(selection.testsDirs)
			if err != nil {
				return err
			}
			return formatting.New(formatting.Options{Format: format, Quiet: quiet}).
				Format(cmd.OutOrStdout(), testsListing(env.tests.Select(selection.filter), selection.filter))
		},
	}
	selection.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress decorative output")
	return cmd
}

func testsListing(tests []*registry.Test, filter registry.Filter) formatting.Listing {
	listing := formatting.Listing{
		Title:   "Tests",
		Headers: []string{"NAME", "TEST SET", "ROLES", "DESCRIPTION"},
	}
	if filter.IsDefined() {
		listing.Title = fmt.Sprintf("Tests (%s)", filter.Describe())
	}
	items := make([]testInfo, 0, len(tests))
	for _, t := range tests {
		info := testInfo{Name: t.Name, Roles: t.Roles, Description: t.Description}
		if t.TestSet != nil {
			info.TestSet = t.TestSet.Name
		}
		items = append(items, info)

		roles := make([]string, len(t.Roles))
		for i, role := range t.Roles {
			roles[i] = role.Name
			if role.Kind != "" {
				roles[i] += " (" + role.Kind + ")"
			}
		}
		listing.Rows = append(listing.Rows, []string{info.Name, info.TestSet, strings.Join(roles, ", "), info.Description})
	}
	listing.Items = items
	return listing
}
