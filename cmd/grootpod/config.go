// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grootpod-cli/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `grootpod config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage grootpod configuration",
		Long: `Manage grootpod configuration.

Configuration is stored in:
  - Linux: ~/.config/grootpod/config.cue
  - macOS: ~/Library/Application Support/grootpod/config.cue
  - Windows: %APPDATA%\grootpod\config.cue`,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cobraCmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return showConfig(cobraCmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return initConfigFile(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cobraCmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	keyStyle := PathStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	cfgDir, dirErr := config.ConfigDir()
	cfgPath := ""
	if dirErr == nil {
		cfgPath = filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	}
	if cfgFile != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), cfgFile)
	} else if cfgPath != "" && fileExistsCheck(cfgPath) {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)

	fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("root"), valueStyle.Render(cfg.Root))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("provision"))
	fmt.Fprintf(app.stdout, "  conda_installer_url: %s\n", valueStyle.Render(cfg.Provision.CondaInstallerURL))
	fmt.Fprintf(app.stdout, "  model_repo_url: %s\n", valueStyle.Render(cfg.Provision.ModelRepoURL))
	fmt.Fprintf(app.stdout, "  python_version: %s\n", valueStyle.Render(cfg.Provision.PythonVersion))
	fmt.Fprintf(app.stdout, "  system_packages: %s\n", valueStyle.Render(strings.Join(cfg.Provision.SystemPackages, ", ")))
	fmt.Fprintf(app.stdout, "  flash_attn_spec: %s\n", valueStyle.Render(cfg.Provision.FlashAttnSpec))
	fmt.Fprintf(app.stdout, "  skip_flash_attn: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Provision.SkipFlashAttn)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("serve"))
	fmt.Fprintf(app.stdout, "  model_path: %s\n", valueStyle.Render(cfg.Serve.ModelPath))
	if cfg.Serve.EmbodimentTag == "" {
		fmt.Fprintf(app.stdout, "  embodiment_tag: %s\n", SubtitleStyle.Render("(auto-detect)"))
	} else {
		fmt.Fprintf(app.stdout, "  embodiment_tag: %s\n", valueStyle.Render(cfg.Serve.EmbodimentTag))
	}
	fmt.Fprintf(app.stdout, "  num_arms: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Serve.NumArms)))
	fmt.Fprintf(app.stdout, "  num_cams: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Serve.NumCams)))
	fmt.Fprintf(app.stdout, "  denoising_steps: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Serve.DenoisingSteps)))
	fmt.Fprintf(app.stdout, "  host: %s\n", valueStyle.Render(cfg.Serve.Host))
	fmt.Fprintf(app.stdout, "  port: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Serve.Port)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(app.stdout, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(app.stdout, "  interactive: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Interactive)))
	fmt.Fprintf(app.stdout, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfigFile(app *App) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if fileExistsCheck(cfgPath) {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n",
			WarningStyle.Render("!"), PathStyle.Render(cfgPath))
		return nil
	}

	if err := os.WriteFile(cfgPath, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n",
		SuccessStyle.Render("✓"), PathStyle.Render(cfgPath))
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
