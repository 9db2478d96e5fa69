// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"testing"
	"time"

	"grootpod-cli/internal/envroot"
)

func TestManifest_WriteAndLoad(t *testing.T) {
	root := envroot.Root(t.TempDir())
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	results := []StepResult{
		{Step: "install conda runtime", Status: StatusInstalled},
		{Step: "fetch model source tree", Status: StatusRefreshed},
		{Step: "verify model imports", Status: StatusSoftFailed, Err: errors.New("import failed")},
	}

	if err := NewManifest(root, results, at).Write(root); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a manifest")
	}

	if !loaded.ProvisionedAt.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, loaded.ProvisionedAt)
	}
	if loaded.Root != root.String() {
		t.Errorf("expected root %s, got %s", root, loaded.Root)
	}
	if len(loaded.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(loaded.Steps))
	}
	if loaded.Steps[1].Status != string(StatusRefreshed) {
		t.Errorf("expected refreshed, got %s", loaded.Steps[1].Status)
	}
	if loaded.Steps[2].Detail != "import failed" {
		t.Errorf("expected the soft failure detail to survive, got %q", loaded.Steps[2].Detail)
	}
	if loaded.Steps[0].Detail != "" {
		t.Errorf("expected no detail on a clean step, got %q", loaded.Steps[0].Detail)
	}
}

func TestLoadManifest_MissingIsNotAnError(t *testing.T) {
	root := envroot.Root(t.TempDir())

	m, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("a missing manifest must not be an error, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for a missing manifest, got %+v", m)
	}
}

func TestManifest_WriteOverwritesPreviousRun(t *testing.T) {
	root := envroot.Root(t.TempDir())
	first := []StepResult{{Step: "install conda runtime", Status: StatusInstalled}}
	second := []StepResult{{Step: "install conda runtime", Status: StatusSkipped}}

	if err := NewManifest(root, first, time.Now()).Write(root); err != nil {
		t.Fatal(err)
	}
	if err := NewManifest(root, second, time.Now()).Write(root); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Steps[0].Status != string(StatusSkipped) {
		t.Errorf("expected the second run to overwrite, got %s", loaded.Steps[0].Status)
	}
}
