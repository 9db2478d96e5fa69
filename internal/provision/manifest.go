// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"
	"time"

	"grootpod-cli/internal/envroot"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Manifest is the informational record of the last provisioning run,
	// written to state.toml under the environment root. It exists for
	// operators and 'grootpod status'; component identity is always the
	// directory existence check, never this file.
	Manifest struct {
		// ProvisionedAt is when the last successful run finished.
		ProvisionedAt time.Time `toml:"provisioned_at"`

		// Root is the environment root the run operated on.
		Root string `toml:"root"`

		// Steps records the outcome of each step of that run.
		Steps []ManifestStep `toml:"steps"`
	}

	// ManifestStep is one step outcome in the manifest.
	ManifestStep struct {
		Name   string `toml:"name"`
		Status string `toml:"status"`
		Detail string `toml:"detail,omitempty"`
	}
)

// NewManifest builds a Manifest from a completed run's results.
func NewManifest(root envroot.Root, results []StepResult, at time.Time) Manifest {
	m := Manifest{
		ProvisionedAt: at,
		Root:          root.String(),
	}
	for _, r := range results {
		step := ManifestStep{Name: r.Step, Status: string(r.Status)}
		if r.Err != nil {
			step.Detail = r.Err.Error()
		}
		m.Steps = append(m.Steps, step)
	}
	return m
}

// Write persists the manifest to the root's state file, overwriting any
// previous run's record.
func (m Manifest) Write(root envroot.Root) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode state manifest: %w", err)
	}
	if err := os.WriteFile(root.ManifestFile(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write state manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the state manifest if one exists.
// Returns (nil, nil) when no manifest has been written yet.
func LoadManifest(root envroot.Root) (*Manifest, error) {
	data, err := os.ReadFile(root.ManifestFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse state manifest: %w", err)
	}
	return &m, nil
}
