package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckTestPlanCmd() *cobra.Command {
	var (
		source    planSource
		testsDirs []string
		save      string
	)
	cmd := &cobra.Command{
		Use:   "check-testplan",
		Short: "Check whether a test plan can be executed",
		Long: `Loads a test plan and reports every problem that would prevent it
from being executed: unknown tests or node drivers, unbound roles, role
mappings that do not fit the constellation and invalid node parameters.

With --out, a valid plan is written back after template expansion, which
also turns a session template and its constellations into a plain plan.

Exits with code 2 if the plan has problems.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(testsDirs)
			if err != nil {
				return err
			}
			plan, err := source.load(env.tests)
			if err != nil {
				return err
			}

			problems := plan.Problems(env.tests, env.drivers)
			out := cmd.OutOrStdout()
			if !problems.HasErrors() {
				fmt.Fprintf(out, "Test plan %s is valid: %d sessions\n", plan.String(), len(plan.Sessions))
				if save != "" {
					return plan.Save(save)
				}
				return nil
			}
			fmt.Fprintf(out, "Test plan %s has %d problems:\n", plan.String(), problems.Count())
			for _, problem := range problems.Errors {
				fmt.Fprintf(out, "  • %s%s\n", problem.Location(), problem.Message)
			}
			return problems
		},
	}
	source.addFlags(cmd)
	cmd.Flags().StringVar(&save, "out", "", "Write the expanded plan to this file if it is valid (YAML for .yaml/.yml, JSON otherwise)")
	cmd.Flags().StringArrayVar(&testsDirs, "testsdir", nil, "Directory with compiled test plugins (*.so); may be repeated")
	return cmd
}
