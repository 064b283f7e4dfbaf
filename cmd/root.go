package cmd

import (
	"errors"
	"fmt"
	"os"

	"feditest/internal/testplan"
	"feditest/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeTestsFailed indicates that at least one test failed or errored.
	ExitCodeTestsFailed = 1
	// ExitCodeInvalidPlan indicates that the test plan cannot be executed.
	ExitCodeInvalidPlan = 2
)

// TestRunFailedError is returned by the run command when the run completed
// but not every test passed.
type TestRunFailedError struct {
	Failed         int
	Errored        int
	TeardownFailed int
}

func (e *TestRunFailedError) Error() string {
	msg := fmt.Sprintf("test run did not pass: %d failed, %d errored", e.Failed, e.Errored)
	if e.TeardownFailed > 0 {
		msg += fmt.Sprintf(", %d sessions failed to tear down", e.TeardownFailed)
	}
	return msg
}

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command for the feditest application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "feditest",
	Short: "Test whether independent implementations of federation protocols interoperate",
	Long: `feditest runs test plans against constellations of nodes.

A test plan is a list of sessions. Each session names a constellation of
nodes, one per role, and the tests to run against them. feditest sets up
the nodes, runs the tests, tears the nodes down again and reports which
tests passed, failed, errored or were skipped.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		// stdout is reserved for results.
		logging.Init(format, level, os.Stderr)
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "feditest version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var planErr *testplan.Error
	if errors.As(err, &planErr) {
		return ExitCodeInvalidPlan
	}

	var planErrs *testplan.ErrorCollection
	if errors.As(err, &planErrs) {
		return ExitCodeInvalidPlan
	}

	var runFailed *TestRunFailedError
	if errors.As(err, &runFailed) {
		return ExitCodeTestsFailed
	}

	// Default to general error
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newListTestsCmd())
	rootCmd.AddCommand(newListNodeDriversCmd())
	rootCmd.AddCommand(newGenerateSessionTemplateCmd())
	rootCmd.AddCommand(newCheckTestPlanCmd())
	rootCmd.AddCommand(newRunCmd())
}
