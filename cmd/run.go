package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"feditest/internal/testrun"
	"feditest/pkg/logging"

	"github.com/spf13/cobra"
)

type runOptions struct {
	source    planSource
	selection testSelection
	tap       string
	json      string
	yaml      string
	summary   bool
	console   bool
	verbose   bool
	watch     bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a test plan",
		Long: `Runs the sessions of a test plan one after the other and reports the
outcome of every test as TAP on stdout.

Exits with code 1 if any test failed or errored and with code 2 if the
test plan cannot be executed.

Examples:
  feditest run --testplan plan.json
  feditest run --testplan plan.yaml --set host=example.com --json transcript.json
  feditest run --testplan plan.json --filter '^webfinger::' --console --summary
  feditest run --session-template session.json --constellation a.json --constellation b.json
  feditest run --testplan plan.json --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !opts.watch {
				return runOnce(ctx, cmd, &opts)
			}
			return watchPlan(ctx, opts.source.file(), func(ctx context.Context) error {
				return runOnce(ctx, cmd, &opts)
			})
		},
	}
	opts.source.addFlags(cmd)
	opts.selection.addFlags(cmd)
	cmd.Flags().StringVar(&opts.tap, "tap", "", "Write TAP to this file instead of stdout")
	cmd.Flags().StringVar(&opts.json, "json", "", "Write the transcript as JSON to this file")
	cmd.Flags().StringVar(&opts.yaml, "yaml", "", "Write the transcript as YAML to this file")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print a summary table when the run is complete")
	cmd.Flags().BoolVar(&opts.console, "console", false, "Report progress in human readable form on stderr")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Include roles and drivers in the console report")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Run again whenever the test plan file changes")
	return cmd
}

// runOnce loads, checks and runs the plan and writes the requested outputs.
func runOnce(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	env, err := newEnvironment(opts.selection.testsDirs)
	if err != nil {
		return err
	}
	plan, err := opts.source.load(env.tests)
	if err != nil {
		return err
	}
	if err := plan.CheckCanBeExecuted(env.tests, env.drivers); err != nil {
		return err
	}

	tapOut := cmd.OutOrStdout()
	if opts.tap != "" && opts.tap != "-" {
		f, err := os.Create(opts.tap)
		if err != nil {
			return fmt.Errorf("failed to create TAP file: %w", err)
		}
		defer f.Close()
		tapOut = f
	}

	reporters := []testrun.Reporter{testrun.NewTAPReporter(tapOut)}
	switch {
	case opts.console:
		reporters = append(reporters, testrun.NewConsoleReporter(cmd.ErrOrStderr(), opts.verbose, opts.source.path))
	case isTerminal(os.Stderr):
		progress := newProgressReporter(os.Stderr)
		env.prompter.AroundPrompt(progress.Pause, progress.Resume)
		reporters = append(reporters, progress)
	}

	engine := testrun.NewEngine(env.tests, env.drivers,
		testrun.WithReporters(reporters...),
		testrun.WithFilter(opts.selection.filter))
	transcript, runErr := engine.Run(ctx, plan)

	if err := writeOutputs(transcript, opts, summaryWriter(cmd, opts)); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if transcript.ExitCode() != 0 {
		s := transcript.BuildSummary()
		runFailed := &TestRunFailedError{Failed: s.Failed, Errored: s.Errored}
		for _, session := range transcript.Sessions {
			if session.TeardownProblem != nil {
				runFailed.TeardownFailed++
			}
		}
		return runFailed
	}
	logging.Info("CLI", "Test run %s passed", transcript.ID)
	return nil
}

// summaryWriter keeps the summary table away from TAP on stdout.
func summaryWriter(cmd *cobra.Command, opts *runOptions) io.Writer {
	if opts.tap == "" || opts.tap == "-" {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func writeOutputs(transcript *testrun.Transcript, opts *runOptions, summary io.Writer) error {
	if opts.json != "" {
		if err := testrun.WriteFile(opts.json, transcript, testrun.WriteJSON); err != nil {
			return err
		}
	}
	if opts.yaml != "" {
		if err := testrun.WriteFile(opts.yaml, transcript, testrun.WriteYAML); err != nil {
			return err
		}
	}
	if opts.summary {
		return testrun.WriteSummary(summary, transcript)
	}
	return nil
}
