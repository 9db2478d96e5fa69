// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"grootpod-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Build metadata, stamped via -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Persistent flag targets shared by every subcommand.
var (
	verbose bool
	cfgFile string
)

// newRootCommand builds the grootpod command tree.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grootpod",
		Short: "Provision and run the GR00T inference service on a GPU pod",
		Long: TitleStyle.Render("grootpod") + SubtitleStyle.Render(" - GR00T inference pod manager") + `

grootpod turns a freshly rented GPU pod into a ready GR00T inference
deployment: a Miniconda runtime, an isolated python environment, the
Isaac-GR00T model sources, persistent download caches, and launcher
scripts, all on the persistent volume so re-runs skip finished work.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Attach the persistent volume (default mount: /workspace/gr00t)
  2. Run 'grootpod provision' and wait for the steps to finish
  3. Start the service with 'grootpod start'

` + SubtitleStyle.Render("Examples:") + `
  grootpod provision        Install or repair the environment
  grootpod status           Show which components are installed
  grootpod start            Launch the inference service
  grootpod teardown         Remove everything the provisioner created
  grootpod config show      Show current configuration
  grootpod docs             Read the deployment guide`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/grootpod/config.cue)")

	rootCmd.AddCommand(newProvisionCommand(app))
	rootCmd.AddCommand(newTeardownCommand(app))
	rootCmd.AddCommand(newStatusCommand(app))
	rootCmd.AddCommand(newStartCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newDocsCommand(app))

	return rootCmd
}

// getVersionString formats the build metadata for --version output.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with production dependencies. main.main calls it
// exactly once.
func Execute() {
	app := NewApp(Dependencies{})

	// fang supplies styled help, errors, and version output.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
