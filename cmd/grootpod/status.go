// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/provision"

	"github.com/spf13/cobra"
)

// newStatusCommand creates the `grootpod status` command.
func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which environment components are installed",
		Long: `Show which environment components are installed.

Component status comes from the filesystem (the same existence checks the
provisioner uses), so it is accurate even when provisioning was interrupted.
The state manifest, when present, adds when the last successful run finished.`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runStatus(cobraCmd.Context(), app)
		},
	}
}

func runStatus(ctx context.Context, app *App) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	root := cfg.EnvRoot()

	fmt.Fprintln(app.stdout, TitleStyle.Render("GR00T environment status"))
	fmt.Fprintf(app.stdout, "%s %s\n\n", SubtitleStyle.Render("Root:"), PathStyle.Render(root.String()))

	if !root.Exists() {
		fmt.Fprintf(app.stdout, "%s Environment root does not exist\n", WarningStyle.Render("!"))
		fmt.Fprintf(app.stdout, "  Attach the persistent volume and run %s\n", PathStyle.Render("grootpod provision"))
		return nil
	}

	missing := 0
	for _, component := range envroot.AllComponents() {
		if root.ComponentPresent(component) {
			fmt.Fprintf(app.stdout, "  %s %-12s %s\n",
				SuccessStyle.Render("✓"), component, SubtitleStyle.Render(root.ComponentPath(component)))
		} else {
			missing++
			fmt.Fprintf(app.stdout, "  %s %-12s %s\n",
				ErrorStyle.Render("✗"), component, SubtitleStyle.Render(root.ComponentPath(component)))
		}
	}

	manifest, err := provision.LoadManifest(root)
	if err != nil {
		fmt.Fprintf(app.stdout, "\n%s state manifest unreadable: %v\n", WarningStyle.Render("!"), err)
	} else if manifest != nil {
		fmt.Fprintf(app.stdout, "\n%s %s\n", SubtitleStyle.Render("Last provisioned:"),
			manifest.ProvisionedAt.Format("2006-01-02 15:04:05 MST"))
		for _, step := range manifest.Steps {
			if step.Status == string(provision.StatusSoftFailed) {
				fmt.Fprintf(app.stdout, "%s %s: %s\n", WarningStyle.Render("!"), step.Name, step.Detail)
			}
		}
	}

	if missing > 0 {
		fmt.Fprintf(app.stdout, "\nRun %s to install the missing components.\n", PathStyle.Render("grootpod provision"))
	}
	return nil
}
