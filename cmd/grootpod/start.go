// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/issue"
	"grootpod-cli/internal/serve"

	"github.com/spf13/cobra"
)

// newStartCommand creates the `grootpod start` command.
func newStartCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the GR00T inference service",
		Long: `Launch the GR00T inference service in the foreground.

Launch parameters come from environment variables, falling back to the
configured defaults for anything unset:

  MODEL_PATH       HuggingFace repo ID or local path (default nvidia/GR00T-N1-2B)
  EMBODIMENT_TAG   robot embodiment, empty auto-detects (default empty)
  NUM_ARMS         robot arm count (default 1)
  NUM_CAMS         camera count (default 2)
  DENOISING_STEPS  diffusion denoising steps (default 4)
  HOST             bind address (default 0.0.0.0)
  PORT             bind port (default 5555)`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runStart(cobraCmd.Context(), app)
		},
	}
}

func runStart(ctx context.Context, app *App) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	root := cfg.EnvRoot()
	if err := checkProvisioned(root); err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	settings, err := serve.Resolve(cfg.Serve.Settings(), os.LookupEnv)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Starting GR00T inference service"))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("Model:"), PathStyle.Render(settings.ModelPath))
	fmt.Fprintf(app.stdout, "  %s %s\n\n", SubtitleStyle.Render("Listen:"),
		PathStyle.Render(fmt.Sprintf("%s:%d", settings.Host, settings.Port)))

	// The persistent caches must be visible to the service exactly as the
	// generated activate script exports them.
	env := []string{
		"PIP_CACHE_DIR=" + root.PipCacheDir(),
		"HF_HOME=" + root.HFCacheDir(),
		"CONDA_PKGS_DIRS=" + root.CondaPkgsCacheDir(),
	}
	args := append([]string{root.InferenceScript()}, settings.Args()...)

	if err := app.Runner().Run(ctx, env, root.EnvPython(), args...); err != nil {
		return &ExitError{Code: 1, Err: issue.WrapWithOperation(err, "run inference service")}
	}
	return nil
}

// checkProvisioned verifies the components the service needs at launch.
func checkProvisioned(root envroot.Root) error {
	for _, component := range []envroot.Component{envroot.ComponentEnv, envroot.ComponentModelRepo} {
		if !root.ComponentPresent(component) {
			return issue.NewErrorContext().
				WithOperation("start inference service").
				WithResource(root.ComponentPath(component)).
				WithSuggestion("Run 'grootpod provision' to install the environment").
				WithSuggestion("Check 'grootpod status' for the full component list").
				Wrap(fmt.Errorf("component %s is not installed", component)).
				BuildError()
		}
	}
	return nil
}
