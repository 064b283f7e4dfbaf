package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the repository whose releases self-update installs.
const githubRepoSlug = "fediverse-devnet/feditest"

// checksumFile is the release asset listing the checksums of all binaries.
const checksumFile = "checksums.txt"

func newSelfUpdateCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update feditest to the latest version",
		Long: `Checks for the latest release of feditest on GitHub and
replaces the current binary if a newer version is found. Downloads are
verified against the checksums published with the release.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd.Context(), cmd.OutOrStdout(), rootCmd.Version, checkOnly)
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer version exists")
	return cmd
}

func runSelfUpdate(ctx context.Context, out io.Writer, currentVersion string, checkOnly bool) error {
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: checksumFile},
	})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", githubRepoSlug)
	}
	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	if checkOnly {
		fmt.Fprintln(out, "Run feditest self-update to install it.")
		return nil
	}
	fmt.Fprintf(out, "Release notes:\n%s\n", latest.ReleaseNotes)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
