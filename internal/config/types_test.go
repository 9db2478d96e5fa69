// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"grootpod-cli/internal/provision"
)

func TestColorScheme_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		scheme  ColorScheme
		wantErr bool
	}{
		{name: "auto", scheme: ColorSchemeAuto, wantErr: false},
		{name: "dark", scheme: ColorSchemeDark, wantErr: false},
		{name: "light", scheme: ColorSchemeLight, wantErr: false},
		{name: "empty", scheme: "", wantErr: true},
		{name: "unknown", scheme: "neon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.scheme.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ColorScheme(%q).Validate() error = %v, wantErr %v", tt.scheme, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidColorScheme) {
				t.Errorf("error does not wrap ErrInvalidColorScheme")
			}
		})
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("the built-in defaults must validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("whitespace root", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Root = "   "
		if !errors.Is(cfg.Validate(), ErrInvalidRootPath) {
			t.Error("expected ErrInvalidRootPath for a whitespace root")
		}
	})

	t.Run("empty system package", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Provision.SystemPackages = []string{"git", " "}
		if !errors.Is(cfg.Validate(), ErrInvalidProvisionConfig) {
			t.Error("expected ErrInvalidProvisionConfig for an empty package name")
		}
	})

	t.Run("invalid serve counts", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Serve.NumArms = 0
		if cfg.Validate() == nil {
			t.Error("expected an error for a zero arm count")
		}
	})

	t.Run("invalid color scheme", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.UI.ColorScheme = "neon"
		if !errors.Is(cfg.Validate(), ErrInvalidColorScheme) {
			t.Error("expected ErrInvalidColorScheme")
		}
	})
}

func TestProvisionConfig_Options(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	opts := cfg.Provision.Options(cfg.Serve.Settings())

	if opts.ModelRepoURL != provision.DefaultModelRepoURL {
		t.Errorf("model repo did not carry over, got %q", opts.ModelRepoURL)
	}
	if opts.ServeDefaults.Port != cfg.Serve.Port {
		t.Errorf("serve defaults did not carry over, got %d", opts.ServeDefaults.Port)
	}
}

func TestConfig_EnvRoot(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Root = "/mnt/volume/gr00t"

	if cfg.EnvRoot().String() != "/mnt/volume/gr00t" {
		t.Errorf("EnvRoot mismatch, got %q", cfg.EnvRoot())
	}
}
