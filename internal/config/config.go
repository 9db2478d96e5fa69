// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"grootpod-cli/internal/cueutil"
	"grootpod-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "grootpod"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// EnvRootVar is the environment variable overriding the environment root.
	EnvRootVar = "GROOTPOD_ROOT"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the per-user grootpod configuration directory. Linux
// pods (the usual deployment target) resolve $XDG_CONFIG_HOME with a
// ~/.config fallback; Windows and macOS follow their own conventions so
// the CLI also works from a workstation.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to resolve home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("root", defaults.Root)
	v.SetDefault("provision.conda_installer_url", defaults.Provision.CondaInstallerURL)
	v.SetDefault("provision.model_repo_url", defaults.Provision.ModelRepoURL)
	v.SetDefault("provision.python_version", defaults.Provision.PythonVersion)
	v.SetDefault("provision.system_packages", defaults.Provision.SystemPackages)
	v.SetDefault("provision.flash_attn_spec", defaults.Provision.FlashAttnSpec)
	v.SetDefault("provision.skip_flash_attn", defaults.Provision.SkipFlashAttn)
	v.SetDefault("serve.model_path", defaults.Serve.ModelPath)
	v.SetDefault("serve.embodiment_tag", defaults.Serve.EmbodimentTag)
	v.SetDefault("serve.num_arms", defaults.Serve.NumArms)
	v.SetDefault("serve.num_cams", defaults.Serve.NumCams)
	v.SetDefault("serve.denoising_steps", defaults.Serve.DenoisingSteps)
	v.SetDefault("serve.host", defaults.Serve.Host)
	v.SetDefault("serve.port", defaults.Serve.Port)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.interactive", defaults.UI.Interactive)

	// The root is the one value operators override per-pod without touching
	// the config file, so it binds to the environment.
	if err := v.BindEnv("root", EnvRootVar); err != nil {
		return nil, "", fmt.Errorf("failed to bind %s: %w", EnvRootVar, err)
	}

	resolvedPath := ""

	// An explicit --config path is authoritative and must exist. The default
	// lookup tolerates a missing file and runs on defaults.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'grootpod config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", wrapLoadError(err, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", wrapLoadError(err, cuePath)
			}
			resolvedPath = cuePath
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the field values against 'grootpod config show'").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func wrapLoadError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'grootpod config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
//
// The decode target is map[string]any rather than Config so Viper keeps its
// default-merging behavior, and validation uses Concrete(false) because all
// config fields are optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// GenerateCUE renders a configuration as a CUE document, used by
// 'grootpod config show' and for seeding a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// grootpod configuration\n")
	sb.WriteString(fmt.Sprintf("root: %q\n", cfg.Root))

	sb.WriteString("\nprovision: {\n")
	sb.WriteString(fmt.Sprintf("\tconda_installer_url: %q\n", cfg.Provision.CondaInstallerURL))
	sb.WriteString(fmt.Sprintf("\tmodel_repo_url:      %q\n", cfg.Provision.ModelRepoURL))
	sb.WriteString(fmt.Sprintf("\tpython_version:      %q\n", cfg.Provision.PythonVersion))
	if len(cfg.Provision.SystemPackages) > 0 {
		sb.WriteString("\tsystem_packages: [\n")
		for _, pkg := range cfg.Provision.SystemPackages {
			sb.WriteString(fmt.Sprintf("\t\t%q,\n", pkg))
		}
		sb.WriteString("\t]\n")
	}
	if cfg.Provision.FlashAttnSpec != "" {
		sb.WriteString(fmt.Sprintf("\tflash_attn_spec: %q\n", cfg.Provision.FlashAttnSpec))
	}
	sb.WriteString(fmt.Sprintf("\tskip_flash_attn: %v\n", cfg.Provision.SkipFlashAttn))
	sb.WriteString("}\n")

	sb.WriteString("\nserve: {\n")
	sb.WriteString(fmt.Sprintf("\tmodel_path:      %q\n", cfg.Serve.ModelPath))
	sb.WriteString(fmt.Sprintf("\tembodiment_tag:  %q\n", cfg.Serve.EmbodimentTag))
	sb.WriteString(fmt.Sprintf("\tnum_arms:        %d\n", cfg.Serve.NumArms))
	sb.WriteString(fmt.Sprintf("\tnum_cams:        %d\n", cfg.Serve.NumCams))
	sb.WriteString(fmt.Sprintf("\tdenoising_steps: %d\n", cfg.Serve.DenoisingSteps))
	sb.WriteString(fmt.Sprintf("\thost:            %q\n", cfg.Serve.Host))
	sb.WriteString(fmt.Sprintf("\tport:            %d\n", cfg.Serve.Port))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose:      %v\n", cfg.UI.Verbose))
	sb.WriteString(fmt.Sprintf("\tinteractive:  %v\n", cfg.UI.Interactive))
	sb.WriteString("}\n")

	return sb.String()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory when it does not exist yet.
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}
