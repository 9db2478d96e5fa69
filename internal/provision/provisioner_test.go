// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/issue"

	"github.com/charmbracelet/log"
)

func newTestProvisioner(t *testing.T, root envroot.Root, exec *fakeExec, dl *fakeDownloader) *Provisioner {
	t.Helper()
	logger := log.New(io.Discard)
	runner := NewRunner(io.Discard, io.Discard, logger, WithExecCommand(exec.command))
	return NewProvisioner(root, runner, dl, logger, Options{})
}

// probesAbsent scripts every presence probe to answer "not installed".
func probesAbsent() []string {
	return []string{"dpkg -s", "show gr00t", "show flash-attn"}
}

// installEffects mimics the directory trees the real installers create.
func installEffects(root envroot.Root) map[string]func() {
	return map[string]func(){
		"-b -p":     func() { os.MkdirAll(root.CondaDir(), 0o755) },
		"create -y": func() { os.MkdirAll(root.EnvDir(), 0o755) },
		"git clone": func() { os.MkdirAll(root.ModelRepoDir(), 0o755) },
	}
}

func TestProvisioner_FreshRootInstallsEverything(t *testing.T) {
	root := envroot.Root(t.TempDir())
	exec := &fakeExec{failOn: probesAbsent(), onCreate: installEffects(root)}
	dl := &fakeDownloader{}
	p := newTestProvisioner(t, root, exec, dl)

	results, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results) != 9 {
		t.Fatalf("expected 9 step results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != StatusInstalled {
			t.Errorf("step %q: expected installed on a fresh root, got %s", r.Step, r.Status)
		}
	}

	if len(dl.urls) != 1 || dl.urls[0] != DefaultCondaInstallerURL {
		t.Errorf("expected one installer download from the default URL, got %v", dl.urls)
	}
	for _, pattern := range []string{"git clone", "apt-get update", "apt-get install", "install -e", "--no-build-isolation"} {
		if !exec.ran(pattern) {
			t.Errorf("expected a %q command on a fresh root", pattern)
		}
	}

	for _, dir := range root.CacheDirs() {
		if _, statErr := os.Stat(dir); statErr != nil {
			t.Errorf("cache directory %s missing: %v", dir, statErr)
		}
	}
	for _, script := range []string{root.ActivateScript(), root.StartScript(), root.QuickSetupScript()} {
		info, statErr := os.Stat(script)
		if statErr != nil {
			t.Fatalf("launcher script %s missing: %v", script, statErr)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Errorf("launcher script %s is not executable", script)
		}
	}

	manifest, loadErr := LoadManifest(root)
	if loadErr != nil || manifest == nil {
		t.Fatalf("expected a state manifest after a successful run, got %v, %v", manifest, loadErr)
	}
	if len(manifest.Steps) != 9 {
		t.Errorf("expected 9 manifest steps, got %d", len(manifest.Steps))
	}
}

func TestProvisioner_SecondRunSkipsInstalledWork(t *testing.T) {
	root := envroot.Root(t.TempDir())
	exec := &fakeExec{failOn: probesAbsent(), onCreate: installEffects(root)}
	dl := &fakeDownloader{}
	p := newTestProvisioner(t, root, exec, dl)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// All probes now answer "present".
	exec.reset()
	results, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	want := map[string]StepStatus{
		"install conda runtime":       StatusSkipped,
		"create isolated environment": StatusSkipped,
		"fetch model source tree":     StatusRefreshed,
		"install system packages":     StatusSkipped,
		"install python dependencies": StatusSkipped,
		"build flash-attn":            StatusSkipped,
		"create cache directories":    StatusInstalled,
		"write launcher scripts":      StatusInstalled,
		"verify model imports":        StatusInstalled,
	}
	for _, r := range results {
		if r.Status != want[r.Step] {
			t.Errorf("step %q: expected %s on re-run, got %s", r.Step, want[r.Step], r.Status)
		}
	}

	if exec.ran("git clone") {
		t.Error("re-run must not clone an existing source tree")
	}
	if !exec.ran("pull --ff-only") {
		t.Error("re-run must refresh the existing source tree")
	}
	if exec.ran("apt-get install") {
		t.Error("re-run must not reinstall present system packages")
	}
	if len(dl.urls) != 1 {
		t.Errorf("re-run must not re-download the installer, got %d fetches", len(dl.urls))
	}
}

func TestProvisioner_MissingRootFailsBeforeAnyWork(t *testing.T) {
	root := envroot.Root(t.TempDir() + "/not-mounted")
	exec := &fakeExec{}
	p := newTestProvisioner(t, root, exec, &fakeDownloader{})

	results, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing environment root")
	}
	if results != nil {
		t.Errorf("expected no step results, got %d", len(results))
	}
	if len(exec.calls) != 0 {
		t.Errorf("expected no commands before the root precondition, got %v", exec.calls)
	}

	var actionable *issue.ActionableError
	if !errors.As(err, &actionable) {
		t.Fatalf("expected an actionable error, got %T", err)
	}
	if !actionable.HasSuggestions() {
		t.Error("the missing-root error must carry remediation suggestions")
	}
}

func TestProvisioner_FailFastAbortsAndResumes(t *testing.T) {
	root := envroot.Root(t.TempDir())
	exec := &fakeExec{
		failOn:   append(probesAbsent(), "git clone"),
		onCreate: installEffects(root),
	}
	p := newTestProvisioner(t, root, exec, &fakeDownloader{})

	results, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected the clone failure to abort the run")
	}
	if len(results) != 3 {
		t.Fatalf("expected the run to stop at the third step, got %d results", len(results))
	}
	if results[2].Status != StatusFailed {
		t.Errorf("expected the clone step to report failed, got %s", results[2].Status)
	}
	if exec.ran("apt-get") {
		t.Error("no step may run after a fatal failure")
	}
	if m, _ := LoadManifest(root); m != nil {
		t.Error("a failed run must not write a state manifest")
	}

	// The clone now succeeds; the run resumes past the already-installed
	// conda runtime and environment.
	exec.reset()
	exec.failOn = probesAbsent()

	results, err = p.Run(context.Background())
	if err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if results[0].Status != StatusSkipped || results[1].Status != StatusSkipped {
		t.Errorf("resumed run must skip completed steps, got %s and %s",
			results[0].Status, results[1].Status)
	}
	if results[2].Status != StatusInstalled {
		t.Errorf("resumed run must install the missing source tree, got %s", results[2].Status)
	}
}

func TestProvisioner_SoftSelfTestFailureDoesNotAbort(t *testing.T) {
	root := envroot.Root(t.TempDir())
	exec := &fakeExec{
		failOn:   append(probesAbsent(), "Gr00tPolicy"),
		onCreate: installEffects(root),
	}
	p := newTestProvisioner(t, root, exec, &fakeDownloader{})

	results, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("a soft verification failure must not fail the run: %v", err)
	}

	last := results[len(results)-1]
	if last.Status != StatusSoftFailed {
		t.Errorf("expected the import self-test to report soft-failed, got %s", last.Status)
	}
	if last.Err == nil {
		t.Error("a soft failure must surface its cause")
	}
	if m, _ := LoadManifest(root); m == nil {
		t.Error("a soft failure must still write the state manifest")
	}
}

func TestProvisioner_SkipFlashAttn(t *testing.T) {
	root := envroot.Root(t.TempDir())
	exec := &fakeExec{failOn: probesAbsent()}
	logger := log.New(io.Discard)
	runner := NewRunner(io.Discard, io.Discard, logger, WithExecCommand(exec.command))
	p := NewProvisioner(root, runner, &fakeDownloader{}, logger, Options{SkipFlashAttn: true})

	result := p.flashAttnStep().run(context.Background())
	if result.Status != StatusSkipped {
		t.Errorf("expected the flash-attn step to skip when disabled, got %s", result.Status)
	}
	if exec.ran("no-build-isolation") {
		t.Error("no pip install may run when the flash-attn build is disabled")
	}
}
