// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/issue"
	"grootpod-cli/internal/serve"

	"github.com/charmbracelet/log"
)

const (
	// DefaultCondaInstallerURL is the upstream Miniconda batch installer.
	DefaultCondaInstallerURL = "https://repo.anaconda.com/miniconda/Miniconda3-latest-Linux-x86_64.sh"

	// DefaultModelRepoURL is the upstream model and inference-service source.
	DefaultModelRepoURL = "https://github.com/NVIDIA/Isaac-GR00T.git"

	// DefaultPythonVersion pins the isolated environment's interpreter.
	DefaultPythonVersion = "3.10"

	// DefaultFlashAttnSpec is the build-from-source attention kernel package.
	DefaultFlashAttnSpec = "flash-attn==2.7.1.post4"
)

type (
	// Options holds the tunable inputs of a provisioning run. Zero values
	// fall back to the defaults above, so Options{} provisions the stock
	// GR00T deployment.
	Options struct {
		// CondaInstallerURL is where the Miniconda installer is fetched from.
		CondaInstallerURL string

		// ModelRepoURL is the git remote of the model source tree.
		ModelRepoURL string

		// PythonVersion is the interpreter version for the isolated environment.
		PythonVersion string

		// SystemPackages are the apt packages the inference stack needs.
		SystemPackages []string

		// FlashAttnSpec is the pip requirement for the flash-attn build.
		FlashAttnSpec string

		// SkipFlashAttn skips the flash-attn build entirely, for CPU-only
		// smoke deployments where the kernel cannot compile anyway.
		SkipFlashAttn bool

		// ServeDefaults are baked into the generated start script as the
		// fallback values for the documented environment variables.
		ServeDefaults serve.Settings
	}

	// Provisioner brings the environment root from any prior state to a
	// fully installed one. Safe to re-run: present components are skipped.
	Provisioner struct {
		root       envroot.Root
		opts       Options
		runner     *Runner
		downloader Downloader
		logger     *log.Logger
	}
)

// DefaultSystemPackages are the shared libraries and tools the inference
// stack links against on a stock Ubuntu pod image.
func DefaultSystemPackages() []string {
	return []string{"git", "ffmpeg", "libsm6", "libxext6", "libgl1", "build-essential"}
}

// NewProvisioner creates a Provisioner over the given root.
func NewProvisioner(root envroot.Root, runner *Runner, downloader Downloader, logger *log.Logger, opts Options) *Provisioner {
	if opts.CondaInstallerURL == "" {
		opts.CondaInstallerURL = DefaultCondaInstallerURL
	}
	if opts.ModelRepoURL == "" {
		opts.ModelRepoURL = DefaultModelRepoURL
	}
	if opts.PythonVersion == "" {
		opts.PythonVersion = DefaultPythonVersion
	}
	if opts.FlashAttnSpec == "" {
		opts.FlashAttnSpec = DefaultFlashAttnSpec
	}
	if opts.SystemPackages == nil {
		opts.SystemPackages = DefaultSystemPackages()
	}
	if opts.ServeDefaults == (serve.Settings{}) {
		opts.ServeDefaults = serve.Defaults()
	}

	return &Provisioner{
		root:       root,
		opts:       opts,
		runner:     runner,
		downloader: downloader,
		logger:     logger,
	}
}

// Run executes every provisioning step in dependency order, fail-fast.
// The returned results cover every step that was attempted, including the
// failing one. On success the state manifest is rewritten.
func (p *Provisioner) Run(ctx context.Context) ([]StepResult, error) {
	if err := p.checkRoot(); err != nil {
		return nil, err
	}

	var results []StepResult
	for _, step := range p.Steps() {
		result := step.run(ctx)
		results = append(results, result)
		p.logResult(result)

		if result.Fatal() {
			return results, issue.NewErrorContext().
				WithOperation(step.Name).
				WithResource(p.root.String()).
				WithSuggestion("Fix the underlying failure and re-run 'grootpod provision'").
				WithSuggestion("Completed steps are skipped on the next run").
				Wrap(result.Err).
				BuildError()
		}
	}

	manifest := NewManifest(p.root, results, time.Now().UTC())
	if err := manifest.Write(p.root); err != nil {
		// The environment is fully usable without the manifest; don't fail
		// the run over an informational file.
		p.logger.Warn("could not write state manifest", "err", err)
	}

	return results, nil
}

// Steps returns the ordered provisioning steps. Order is a dependency
// chain: the conda runtime hosts the isolated environment, which hosts the
// python dependencies installed from the model source tree.
func (p *Provisioner) Steps() []Step {
	return []Step{
		p.condaStep(),
		p.envStep(),
		p.modelRepoStep(),
		p.systemPackagesStep(),
		p.pythonDepsStep(),
		p.flashAttnStep(),
		p.cacheDirsStep(),
		p.scriptsStep(),
		p.selfTestStep(),
	}
}

// checkRoot enforces the precondition that the environment root (the
// persistent volume) is already mounted. A missing root means a misconfigured
// host, which no amount of retrying fixes.
func (p *Provisioner) checkRoot() error {
	if p.root.Exists() {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("verify environment root").
		WithResource(p.root.String()).
		WithSuggestion("Attach the persistent volume to the pod before provisioning").
		WithSuggestion("Set GROOTPOD_ROOT if the volume is mounted elsewhere").
		Wrap(fmt.Errorf("directory does not exist")).
		BuildError()
}

func (p *Provisioner) condaStep() Step {
	return Step{
		Name:    "install conda runtime",
		Present: p.dirPresent(p.root.CondaDir()),
		Install: func(ctx context.Context) error {
			installer, err := os.CreateTemp("", "miniconda-*.sh")
			if err != nil {
				return fmt.Errorf("failed to create temp file for installer: %w", err)
			}
			installer.Close()
			defer os.Remove(installer.Name())

			p.logger.Info("downloading conda installer", "url", p.opts.CondaInstallerURL)
			if err := p.downloader.Fetch(ctx, p.opts.CondaInstallerURL, installer.Name()); err != nil {
				return issue.WrapWithContext(err, "download conda installer", p.opts.CondaInstallerURL)
			}

			// -b runs the installer silently, -p sets the prefix.
			return p.runner.Run(ctx, nil, "bash", installer.Name(), "-b", "-p", p.root.CondaDir())
		},
	}
}

func (p *Provisioner) envStep() Step {
	return Step{
		Name:    "create isolated environment",
		Present: p.dirPresent(p.root.EnvDir()),
		Install: func(ctx context.Context) error {
			env := []string{"CONDA_PKGS_DIRS=" + p.root.CondaPkgsCacheDir()}
			return p.runner.Run(ctx, env, p.root.CondaBin(),
				"create", "-y", "-p", p.root.EnvDir(), "python="+p.opts.PythonVersion)
		},
	}
}

func (p *Provisioner) modelRepoStep() Step {
	return Step{
		Name:    "fetch model source tree",
		Present: p.dirPresent(p.root.ModelRepoDir()),
		Install: func(ctx context.Context) error {
			return p.runner.Run(ctx, nil, "git", "clone", p.opts.ModelRepoURL, p.root.ModelRepoDir())
		},
		// Present trees are refreshed, not skipped: the deployment policy is
		// "always stay current" with the upstream model sources.
		Refresh: func(ctx context.Context) error {
			return p.runner.Run(ctx, nil, "git", "-C", p.root.ModelRepoDir(), "pull", "--ff-only")
		},
	}
}

func (p *Provisioner) systemPackagesStep() Step {
	return Step{
		Name: "install system packages",
		Present: func(ctx context.Context) (bool, error) {
			for _, pkg := range p.opts.SystemPackages {
				if !p.runner.Probe(ctx, "dpkg", "-s", pkg) {
					return false, nil
				}
			}
			return true, nil
		},
		Install: func(ctx context.Context) error {
			env := []string{"DEBIAN_FRONTEND=noninteractive"}
			if err := p.runner.Run(ctx, env, "apt-get", "update"); err != nil {
				return err
			}
			args := append([]string{"install", "-y", "--no-install-recommends"}, p.opts.SystemPackages...)
			return p.runner.Run(ctx, env, "apt-get", args...)
		},
	}
}

func (p *Provisioner) pythonDepsStep() Step {
	return Step{
		Name: "install python dependencies",
		Present: func(ctx context.Context) (bool, error) {
			return p.runner.Probe(ctx, p.root.EnvPip(), "show", "gr00t"), nil
		},
		Install: func(ctx context.Context) error {
			env := []string{"PIP_CACHE_DIR=" + p.root.PipCacheDir()}
			return p.runner.Run(ctx, env, p.root.EnvPip(), "install", "-e", p.root.ModelRepoDir())
		},
	}
}

func (p *Provisioner) flashAttnStep() Step {
	return Step{
		Name: "build flash-attn",
		Present: func(ctx context.Context) (bool, error) {
			if p.opts.SkipFlashAttn {
				return true, nil
			}
			return p.runner.Probe(ctx, p.root.EnvPip(), "show", "flash-attn"), nil
		},
		Install: func(ctx context.Context) error {
			env := []string{"PIP_CACHE_DIR=" + p.root.PipCacheDir(), "MAX_JOBS=4"}
			return p.runner.Run(ctx, env, p.root.EnvPip(),
				"install", "--no-build-isolation", p.opts.FlashAttnSpec)
		},
	}
}

func (p *Provisioner) cacheDirsStep() Step {
	return Step{
		Name: "create cache directories",
		// No presence check: MkdirAll is a no-op on existing directories and
		// there is no meaningful "already configured differently" state.
		Install: func(ctx context.Context) error {
			for _, dir := range p.root.CacheDirs() {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
				}
			}
			return nil
		},
	}
}

func (p *Provisioner) scriptsStep() Step {
	return Step{
		Name: "write launcher scripts",
		// Always rewritten: the artifacts are cheap, deterministic, and must
		// reflect the latest defaults.
		Install: func(ctx context.Context) error {
			activate, err := RenderActivate(p.root)
			if err != nil {
				return err
			}
			start, err := RenderStart(p.root, p.opts.ServeDefaults)
			if err != nil {
				return err
			}
			quickSetup, err := RenderQuickSetup(p.root)
			if err != nil {
				return err
			}
			dockerCmd := RenderDockerCommand(p.root, p.opts.ServeDefaults)

			files := []struct {
				path string
				body string
				mode os.FileMode
			}{
				{p.root.ActivateScript(), activate, 0o755},
				{p.root.StartScript(), start, 0o755},
				{p.root.QuickSetupScript(), quickSetup, 0o755},
				{p.root.DockerCommandFile(), dockerCmd, 0o644},
			}
			for _, f := range files {
				if err := os.WriteFile(f.path, []byte(f.body), f.mode); err != nil {
					return fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
				}
			}
			return nil
		},
	}
}

func (p *Provisioner) selfTestStep() Step {
	return Step{
		Name: "verify model imports",
		Soft: true,
		Install: func(ctx context.Context) error {
			return p.runner.Run(ctx, nil, p.root.EnvPython(), "-c",
				"from gr00t.model.policy import Gr00tPolicy; from gr00t.experiment.data_config import ConfigGenerator")
		},
	}
}

func (p *Provisioner) dirPresent(path string) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		return info.IsDir(), nil
	}
}

func (p *Provisioner) logResult(r StepResult) {
	switch r.Status {
	case StatusSkipped:
		p.logger.Info("already present, skipping", "step", r.Step)
	case StatusInstalled:
		p.logger.Info("installed", "step", r.Step)
	case StatusRefreshed:
		p.logger.Info("refreshed", "step", r.Step)
	case StatusSoftFailed:
		p.logger.Warn("verification failed; environment may still be usable", "step", r.Step, "err", r.Err)
	case StatusFailed:
		p.logger.Error("step failed", "step", r.Step, "err", r.Err)
	}
}
