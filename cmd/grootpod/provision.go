// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"grootpod-cli/internal/provision"

	"github.com/spf13/cobra"
)

// newProvisionCommand creates the `grootpod provision` command.
func newProvisionCommand(app *App) *cobra.Command {
	var skipFlashAttn bool

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Install or repair the GR00T inference environment",
		Long: `Install or repair the GR00T inference environment.

Provisioning is idempotent: every component is checked before any work
happens, so re-running after a failure (or on an already-provisioned pod)
only performs what is still missing. The model source tree is the
exception and is refreshed from upstream on every run.

Steps, in order:
  1. Miniconda runtime           (skipped when present)
  2. Isolated python environment (skipped when present)
  3. Isaac-GR00T source tree     (cloned, or pulled when present)
  4. System packages via apt     (skipped when present)
  5. Python dependencies via pip (skipped when present)
  6. flash-attn source build     (skipped when present)
  7. Persistent cache directories
  8. Launcher scripts            (always rewritten)
  9. Import self-test            (failure is reported, not fatal)`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runProvision(cobraCmd.Context(), app, skipFlashAttn)
		},
	}

	provisionCmd.Flags().BoolVar(&skipFlashAttn, "skip-flash-attn", false,
		"skip the flash-attn source build (CPU-only smoke deployments)")

	return provisionCmd
}

func runProvision(ctx context.Context, app *App, skipFlashAttn bool) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	root := cfg.EnvRoot()
	opts := cfg.Provision.Options(cfg.Serve.Settings())
	if skipFlashAttn {
		opts.SkipFlashAttn = true
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Provisioning GR00T environment"))
	fmt.Fprintf(app.stdout, "%s %s\n\n", SubtitleStyle.Render("Root:"), PathStyle.Render(root.String()))

	p := provision.NewProvisioner(root, app.Runner(), app.Downloader, app.Logger, opts)
	results, err := p.Run(ctx)

	renderStepResults(app, results)

	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Provisioning failed: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Environment ready")
	fmt.Fprintf(app.stdout, "  Start the service with %s or %s\n",
		PathStyle.Render("grootpod start"),
		PathStyle.Render(root.StartScript()))
	return nil
}

// renderStepResults prints one status line per attempted step.
func renderStepResults(app *App, results []provision.StepResult) {
	for _, r := range results {
		switch r.Status {
		case provision.StatusSkipped:
			fmt.Fprintf(app.stdout, "  %s %s %s\n", SuccessStyle.Render("✓"), r.Step, SubtitleStyle.Render("(already present)"))
		case provision.StatusInstalled:
			fmt.Fprintf(app.stdout, "  %s %s\n", SuccessStyle.Render("✓"), r.Step)
		case provision.StatusRefreshed:
			fmt.Fprintf(app.stdout, "  %s %s %s\n", SuccessStyle.Render("✓"), r.Step, SubtitleStyle.Render("(refreshed)"))
		case provision.StatusSoftFailed:
			fmt.Fprintf(app.stdout, "  %s %s: %v\n", WarningStyle.Render("!"), r.Step, r.Err)
		case provision.StatusFailed:
			fmt.Fprintf(app.stdout, "  %s %s\n", ErrorStyle.Render("✗"), r.Step)
		}
	}
}
