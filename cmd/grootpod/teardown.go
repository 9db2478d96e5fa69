// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"grootpod-cli/internal/provision"
	"grootpod-cli/internal/tui"

	"github.com/spf13/cobra"
)

// newTeardownCommand creates the `grootpod teardown` command.
func newTeardownCommand(app *App) *cobra.Command {
	var (
		assumeYes   bool
		systemConda bool
	)

	teardownCmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove everything the provisioner created",
		Long: `Remove everything the provisioner created under the environment root.

Removal is best-effort: a path that cannot be deleted is reported and
cleanup continues with the remaining components. The environment root
itself (the persistent volume mount) is left in place. Tearing down a
root that was never provisioned succeeds without doing anything.

A system-wide conda installation (/opt/conda, ~/miniconda3, ...) lives
outside the environment root and can affect other software on the host,
so removing it takes the --system-conda flag and its own confirmation.`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runTeardown(cobraCmd.Context(), app, assumeYes, systemConda)
		},
	}

	teardownCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")
	teardownCmd.Flags().BoolVar(&systemConda, "system-conda", false,
		"also remove a system-wide conda installation")

	return teardownCmd
}

func runTeardown(ctx context.Context, app *App, assumeYes, systemConda bool) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	root := cfg.EnvRoot()
	d := provision.NewDeprovisioner(root, app.Logger)

	failures := 0

	if d.NothingToDo() {
		fmt.Fprintf(app.stdout, "%s Nothing to remove: %s does not exist\n",
			SuccessStyle.Render("✓"), PathStyle.Render(root.String()))
	} else {
		if !assumeYes {
			ok, confirmErr := app.Confirm(tui.ConfirmOptions{
				Title:       fmt.Sprintf("Remove the GR00T environment at %s?", root),
				Description: "The conda runtime, isolated environment, model checkout, caches, and generated scripts will be deleted.",
				Affirmative: "Remove",
				Negative:    "Keep",
			})
			if confirmErr != nil {
				return &ExitError{Code: 1, Err: confirmErr}
			}
			if !ok {
				fmt.Fprintln(app.stdout, "Teardown cancelled, nothing removed.")
				return nil
			}
		}

		failures += renderRemovalResults(app, d.Run(ctx))
	}

	if systemConda {
		if !assumeYes {
			ok, confirmErr := app.Confirm(tui.ConfirmOptions{
				Title:       "Also remove the system-wide conda installation?",
				Description: "Deletes " + strings.Join(provision.SystemCondaPaths(), ", ") + ". Other software on this host may depend on it.",
				Affirmative: "Remove",
				Negative:    "Keep",
			})
			if confirmErr != nil {
				return &ExitError{Code: 1, Err: confirmErr}
			}
			if !ok {
				fmt.Fprintln(app.stdout, "System-wide conda kept.")
				return finishTeardown(app, failures)
			}
		}

		failures += renderRemovalResults(app, d.RemoveSystemConda(ctx))
	}

	return finishTeardown(app, failures)
}

// finishTeardown always succeeds. Removal is best-effort: paths that could
// not be deleted were already reported per-target, and the command reports
// how many remain so the operator can fix permissions and re-run.
func finishTeardown(app *App, failures int) error {
	if failures > 0 {
		fmt.Fprintf(app.stdout, "\n%s %d path(s) could not be removed; fix permissions and re-run teardown\n",
			WarningStyle.Render("!"), failures)
	}
	return nil
}

// renderRemovalResults prints one line per removal target and returns the
// failure count.
func renderRemovalResults(app *App, results []provision.RemovalResult) int {
	failures := 0
	for _, r := range results {
		switch r.Status {
		case provision.RemovalRemoved:
			fmt.Fprintf(app.stdout, "  %s removed %s %s\n",
				SuccessStyle.Render("✓"), r.Target, PathStyle.Render(r.Path))
		case provision.RemovalAbsent:
			fmt.Fprintf(app.stdout, "  %s %s %s\n",
				SubtitleStyle.Render("-"), r.Target, SubtitleStyle.Render("(already absent)"))
		case provision.RemovalFailed:
			failures++
			fmt.Fprintf(app.stdout, "  %s %s %s: %v\n",
				ErrorStyle.Render("✗"), r.Target, PathStyle.Render(r.Path), r.Err)
		}
	}
	return failures
}
