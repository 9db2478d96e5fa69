// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/provision"
	"grootpod-cli/internal/serve"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidRootPath is returned when the configured root is whitespace-only.
	ErrInvalidRootPath = errors.New("invalid environment root path")
	// ErrInvalidProvisionConfig is returned when a provisioning field is
	// present but unusable.
	ErrInvalidProvisionConfig = errors.New("invalid provision config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ProvisionConfig holds the tunable inputs of a provisioning run.
	// Empty fields fall back to the provision package defaults.
	ProvisionConfig struct {
		CondaInstallerURL string   `json:"conda_installer_url" mapstructure:"conda_installer_url"`
		ModelRepoURL      string   `json:"model_repo_url"      mapstructure:"model_repo_url"`
		PythonVersion     string   `json:"python_version"      mapstructure:"python_version"`
		SystemPackages    []string `json:"system_packages"     mapstructure:"system_packages"`
		FlashAttnSpec     string   `json:"flash_attn_spec"     mapstructure:"flash_attn_spec"`
		SkipFlashAttn     bool     `json:"skip_flash_attn"     mapstructure:"skip_flash_attn"`
	}

	// ServeConfig holds the inference service defaults baked into the
	// generated start script. The documented environment variables still
	// override these at launch time.
	ServeConfig struct {
		ModelPath      string `json:"model_path"      mapstructure:"model_path"`
		EmbodimentTag  string `json:"embodiment_tag"  mapstructure:"embodiment_tag"`
		NumArms        int    `json:"num_arms"        mapstructure:"num_arms"`
		NumCams        int    `json:"num_cams"        mapstructure:"num_cams"`
		DenoisingSteps int    `json:"denoising_steps" mapstructure:"denoising_steps"`
		Host           string `json:"host"            mapstructure:"host"`
		Port           int    `json:"port"            mapstructure:"port"`
	}

	// UIConfig holds terminal presentation settings.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose"      mapstructure:"verbose"`
		Interactive bool        `json:"interactive"  mapstructure:"interactive"`
	}

	// Config is the complete grootpod configuration.
	Config struct {
		Root      string          `json:"root"      mapstructure:"root"`
		Provision ProvisionConfig `json:"provision" mapstructure:"provision"`
		Serve     ServeConfig     `json:"serve"     mapstructure:"serve"`
		UI        UIConfig        `json:"ui"        mapstructure:"ui"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", string(e.Value))
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// Validate checks that the ColorScheme is one of the recognized values.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// String returns the string representation.
func (c ColorScheme) String() string { return string(c) }

// DefaultConfig returns the built-in configuration for a stock deployment.
func DefaultConfig() *Config {
	defaults := serve.Defaults()
	return &Config{
		Root: envroot.DefaultPath,
		Provision: ProvisionConfig{
			CondaInstallerURL: provision.DefaultCondaInstallerURL,
			ModelRepoURL:      provision.DefaultModelRepoURL,
			PythonVersion:     provision.DefaultPythonVersion,
			SystemPackages:    provision.DefaultSystemPackages(),
			FlashAttnSpec:     provision.DefaultFlashAttnSpec,
		},
		Serve: ServeConfig{
			ModelPath:      defaults.ModelPath,
			EmbodimentTag:  defaults.EmbodimentTag,
			NumArms:        defaults.NumArms,
			NumCams:        defaults.NumCams,
			DenoisingSteps: defaults.DenoisingSteps,
			Host:           defaults.Host,
			Port:           defaults.Port,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Interactive: true,
		},
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return ErrInvalidRootPath
	}
	if err := c.Provision.Validate(); err != nil {
		return err
	}
	if err := c.Serve.Settings().Validate(); err != nil {
		return err
	}
	return c.UI.ColorScheme.Validate()
}

// Validate checks the provisioning fields.
func (p ProvisionConfig) Validate() error {
	fields := map[string]string{
		"conda_installer_url": p.CondaInstallerURL,
		"model_repo_url":      p.ModelRepoURL,
		"python_version":      p.PythonVersion,
	}
	for name, value := range fields {
		if value != "" && strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is whitespace-only", ErrInvalidProvisionConfig, name)
		}
	}
	for i, pkg := range p.SystemPackages {
		if strings.TrimSpace(pkg) == "" {
			return fmt.Errorf("%w: system_packages[%d] is empty", ErrInvalidProvisionConfig, i)
		}
	}
	return nil
}

// Options converts the provisioning fields into provision.Options. Empty
// fields stay empty; the provision package applies its own defaults.
func (p ProvisionConfig) Options(serveDefaults serve.Settings) provision.Options {
	return provision.Options{
		CondaInstallerURL: p.CondaInstallerURL,
		ModelRepoURL:      p.ModelRepoURL,
		PythonVersion:     p.PythonVersion,
		SystemPackages:    p.SystemPackages,
		FlashAttnSpec:     p.FlashAttnSpec,
		SkipFlashAttn:     p.SkipFlashAttn,
		ServeDefaults:     serveDefaults,
	}
}

// Settings converts the serve fields into serve.Settings.
func (s ServeConfig) Settings() serve.Settings {
	return serve.Settings{
		ModelPath:      s.ModelPath,
		EmbodimentTag:  s.EmbodimentTag,
		NumArms:        s.NumArms,
		NumCams:        s.NumCams,
		DenoisingSteps: s.DenoisingSteps,
		Host:           s.Host,
		Port:           s.Port,
	}
}

// EnvRoot returns the configured environment root as an envroot.Root.
func (c *Config) EnvRoot() envroot.Root {
	return envroot.Root(c.Root)
}
