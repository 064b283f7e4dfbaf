package cmd

import (
	"strings"

	"feditest/internal/formatting"
	"feditest/internal/nodedriver"
	"feditest/internal/testplan"

	"github.com/spf13/cobra"
)

type fieldInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

type driverInfo struct {
	Name                     string      `json:"name" yaml:"name"`
	Parameters               []fieldInfo `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	AccountFields            []fieldInfo `json:"account_fields,omitempty" yaml:"account_fields,omitempty"`
	NonExistingAccountFields []fieldInfo `json:"non_existing_account_fields,omitempty" yaml:"non_existing_account_fields,omitempty"`
}

func newListNodeDriversCmd() *cobra.Command {
	var (
		output string
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "list-nodedrivers",
		Short: "List the available node drivers",
		Long: `Lists the node drivers a constellation can use, with the node
parameters and account fields each of them understands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}
			env, err := newEnvironment(nil)
			if err != nil {
				return err
			}
			return formatting.New(formatting.Options{Format: format, Quiet: quiet}).
				Format(cmd.OutOrStdout(), driversListing(env.drivers))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress decorative output")
	return cmd
}

func driversListing(drivers *nodedriver.Registry) formatting.Listing {
	listing := formatting.Listing{
		Title:   "Node drivers",
		Headers: []string{"NAME", "PARAMETERS", "ACCOUNT FIELDS"},
	}
	items := []driverInfo{}
	for _, name := range drivers.Names() {
		driver, err := drivers.Get(name)
		if err != nil {
			continue
		}
		info := driverInfo{Name: name}
		for _, p := range driver.NodeParameters() {
			info.Parameters = append(info.Parameters, fieldInfo{Name: p.Name, Description: p.Description, Default: p.Default})
		}
		info.AccountFields = accountFieldInfos(driver.AccountFields())
		info.NonExistingAccountFields = accountFieldInfos(driver.NonExistingAccountFields())
		items = append(items, info)

		listing.Rows = append(listing.Rows, []string{name, fieldNames(info.Parameters), fieldNames(info.AccountFields)})
	}
	listing.Items = items
	return listing
}

func accountFieldInfos(fields []testplan.AccountField) []fieldInfo {
	var infos []fieldInfo
	for _, f := range fields {
		infos = append(infos, fieldInfo{Name: f.Name, Description: f.Description})
	}
	return infos
}

func fieldNames(fields []fieldInfo) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
