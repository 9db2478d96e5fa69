// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grootpod-cli/internal/config"
	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/tui"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Root = filepath.Join(t.TempDir(), "gr00t")
	return cfg
}

// populateRoot creates a minimal provisioned-looking tree under the root.
func populateRoot(t *testing.T, root envroot.Root) {
	t.Helper()
	for _, dir := range []string{root.CondaDir(), root.EnvDir(), root.ModelRepoDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(root.ActivateScript(), []byte("#!/bin/bash\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestTeardown_MissingRootIsVacuousSuccess(t *testing.T) {
	cfg := testConfig(t)

	var asked []string
	app, out := newTestApp(cfg, &scriptedExec{}, answeredConfirm(true, &asked))

	if err := runTeardown(context.Background(), app, false, false); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}
	if !strings.Contains(out.String(), "Nothing to remove") {
		t.Errorf("output missing vacuous-success notice:\n%s", out.String())
	}
	if len(asked) != 0 {
		t.Errorf("confirmation prompted for a missing root: %v", asked)
	}
}

func TestTeardown_DeclinedKeepsEverything(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.EnvRoot()
	populateRoot(t, root)

	app, out := newTestApp(cfg, &scriptedExec{}, answeredConfirm(false, nil))

	if err := runTeardown(context.Background(), app, false, false); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}
	if !strings.Contains(out.String(), "Teardown cancelled, nothing removed.") {
		t.Errorf("output missing cancellation notice:\n%s", out.String())
	}
	if _, err := os.Stat(root.CondaDir()); err != nil {
		t.Errorf("conda directory removed after declined confirmation: %v", err)
	}
}

func TestTeardown_ConfirmedRemovesComponents(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.EnvRoot()
	populateRoot(t, root)

	var asked []string
	app, out := newTestApp(cfg, &scriptedExec{}, answeredConfirm(true, &asked))

	if err := runTeardown(context.Background(), app, false, false); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}
	if len(asked) != 1 {
		t.Fatalf("got %d confirmation prompts, want 1: %v", len(asked), asked)
	}
	for _, path := range []string{root.CondaDir(), root.EnvDir(), root.ModelRepoDir(), root.ActivateScript()} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still present after teardown", path)
		}
	}
	if !strings.Contains(out.String(), "removed") {
		t.Errorf("output missing removal lines:\n%s", out.String())
	}
}

func TestTeardown_AssumeYesSkipsPrompt(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.EnvRoot()
	populateRoot(t, root)

	app, _ := newTestApp(cfg, &scriptedExec{}, func(opts tui.ConfirmOptions) (bool, error) {
		t.Fatalf("confirmation prompted with --yes: %q", opts.Title)
		return false, nil
	})

	if err := runTeardown(context.Background(), app, true, false); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}
	if _, err := os.Stat(root.CondaDir()); !os.IsNotExist(err) {
		t.Error("conda directory still present after teardown")
	}
}

func TestTeardown_UndeletablePathStillSucceeds(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("removal failures cannot be provoked as root")
	}

	cfg := testConfig(t)
	root := cfg.EnvRoot()
	populateRoot(t, root)

	// A file inside a write-protected directory makes the conda target
	// undeletable while the remaining targets stay removable.
	locked := filepath.Join(root.CondaDir(), "pkgs")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "pinned"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	app, out := newTestApp(cfg, &scriptedExec{}, answeredConfirm(true, nil))

	// Removal is best-effort, so the command succeeds even when a path
	// could not be deleted.
	if err := runTeardown(context.Background(), app, true, false); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}

	got := out.String()
	if !strings.Contains(got, "✗") {
		t.Errorf("output missing per-target failure marker:\n%s", got)
	}
	if !strings.Contains(got, "could not be removed") {
		t.Errorf("output missing removal-failure warning:\n%s", got)
	}
	if _, err := os.Stat(root.ModelRepoDir()); !os.IsNotExist(err) {
		t.Error("model repo still present; cleanup stopped at the failed target")
	}
}

func TestTeardown_SystemCondaDeclineIsSeparate(t *testing.T) {
	cfg := testConfig(t)
	populateRoot(t, cfg.EnvRoot())

	// Accept the environment removal, decline the system-wide conda removal.
	answers := []bool{true, false}
	var asked []string
	app, out := newTestApp(cfg, &scriptedExec{}, func(opts tui.ConfirmOptions) (bool, error) {
		asked = append(asked, opts.Title)
		answer := answers[0]
		answers = answers[1:]
		return answer, nil
	})

	if err := runTeardown(context.Background(), app, false, true); err != nil {
		t.Fatalf("runTeardown() = %v, want nil", err)
	}
	if len(asked) != 2 {
		t.Fatalf("got %d confirmation prompts, want 2: %v", len(asked), asked)
	}
	if !strings.Contains(out.String(), "System-wide conda kept.") {
		t.Errorf("output missing system conda notice:\n%s", out.String())
	}
}
