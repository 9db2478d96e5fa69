// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions names the explicit inputs of a configuration load.
	LoadOptions struct {
		// ConfigFilePath forces a specific config file. Loading fails when
		// the file does not exist, unlike the default lookup.
		ConfigFilePath string
		// ConfigDirPath overrides the per-user config directory lookup.
		ConfigDirPath string
	}

	// Provider resolves the effective configuration. The CLI layer depends
	// on this interface so tests can substitute a canned configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider returns the file-backed configuration provider.
func NewProvider() Provider {
	return fileProvider{}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
