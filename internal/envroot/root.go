// SPDX-License-Identifier: MPL-2.0

package envroot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultPath is the environment root used when neither the GROOTPOD_ROOT
	// environment variable nor a config file overrides it. /workspace is the
	// conventional persistent-volume mount point on GPU rental pods.
	DefaultPath = "/workspace/gr00t"

	condaDirName     = "miniconda3"
	envsDirName      = "envs"
	envName          = "gr00t"
	modelRepoDirName = "Isaac-GR00T"
	cacheDirName     = "cache"

	activateScriptName   = "activate.sh"
	startScriptName      = "start_inference.sh"
	quickSetupScriptName = "quick_setup.sh"
	dockerCommandName    = "docker_start_command.txt"
	manifestName         = "state.toml"
)

// ErrInvalidRoot is returned when a Root value is empty or whitespace-only.
var ErrInvalidRoot = errors.New("invalid environment root")

type (
	// Root is the absolute path of the environment root directory.
	// A valid Root is non-empty and not whitespace-only.
	Root string

	// Component is one independently installed subsystem under the root.
	Component string
)

// Components with directory identity, in provisioning dependency order.
const (
	ComponentConda     Component = "conda runtime"
	ComponentEnv       Component = "isolated environment"
	ComponentModelRepo Component = "model source tree"
	ComponentCaches    Component = "cache directories"
	ComponentScripts   Component = "launcher scripts"
)

// New validates and returns a Root.
func New(path string) (Root, error) {
	r := Root(path)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Validate checks that the root path is usable.
func (r Root) Validate() error {
	if strings.TrimSpace(string(r)) == "" {
		return ErrInvalidRoot
	}
	return nil
}

// String returns the root as a plain path string.
func (r Root) String() string { return string(r) }

// Exists reports whether the root directory is present on disk.
func (r Root) Exists() bool {
	info, err := os.Stat(string(r))
	return err == nil && info.IsDir()
}

// CondaDir is the self-contained Miniconda installation.
func (r Root) CondaDir() string { return filepath.Join(string(r), condaDirName) }

// CondaBin is the conda executable inside the runtime installation.
func (r Root) CondaBin() string { return filepath.Join(r.CondaDir(), "bin", "conda") }

// EnvDir is the isolated conda environment holding the model's python stack.
func (r Root) EnvDir() string { return filepath.Join(string(r), envsDirName, envName) }

// EnvPython is the python interpreter of the isolated environment.
func (r Root) EnvPython() string { return filepath.Join(r.EnvDir(), "bin", "python") }

// EnvPip is the pip executable of the isolated environment.
func (r Root) EnvPip() string { return filepath.Join(r.EnvDir(), "bin", "pip") }

// ModelRepoDir is the checkout of the external model repository.
func (r Root) ModelRepoDir() string { return filepath.Join(string(r), modelRepoDirName) }

// InferenceScript is the inference entry point inside the model checkout.
func (r Root) InferenceScript() string {
	return filepath.Join(r.ModelRepoDir(), "scripts", "inference_service.py")
}

// PipCacheDir is the persistent pip download cache.
func (r Root) PipCacheDir() string { return filepath.Join(string(r), cacheDirName, "pip") }

// HFCacheDir is the persistent HuggingFace artifact cache.
func (r Root) HFCacheDir() string { return filepath.Join(string(r), cacheDirName, "huggingface") }

// CondaPkgsCacheDir is the persistent conda package cache.
func (r Root) CondaPkgsCacheDir() string { return filepath.Join(string(r), cacheDirName, "conda-pkgs") }

// CacheDirs returns every cache directory the provisioner creates.
func (r Root) CacheDirs() []string {
	return []string{r.PipCacheDir(), r.HFCacheDir(), r.CondaPkgsCacheDir()}
}

// ActivateScript is the generated shell activation artifact.
func (r Root) ActivateScript() string { return filepath.Join(string(r), activateScriptName) }

// StartScript is the generated inference launcher artifact.
func (r Root) StartScript() string { return filepath.Join(string(r), startScriptName) }

// QuickSetupScript is the generated one-shot re-provisioning artifact.
func (r Root) QuickSetupScript() string { return filepath.Join(string(r), quickSetupScriptName) }

// DockerCommandFile is the plain-text docker start command reference.
func (r Root) DockerCommandFile() string { return filepath.Join(string(r), dockerCommandName) }

// ManifestFile is the provisioning state manifest (informational only;
// component identity is always the directory existence check).
func (r Root) ManifestFile() string { return filepath.Join(string(r), manifestName) }

// GeneratedArtifacts returns every file the provisioner rewrites on each run.
func (r Root) GeneratedArtifacts() []string {
	return []string{
		r.ActivateScript(),
		r.StartScript(),
		r.QuickSetupScript(),
		r.DockerCommandFile(),
	}
}

// ComponentPath returns the directory that defines a component's identity.
// ComponentCaches and ComponentScripts cover multiple paths; their first
// path is returned (callers needing all paths use CacheDirs/GeneratedArtifacts).
func (r Root) ComponentPath(c Component) string {
	switch c {
	case ComponentConda:
		return r.CondaDir()
	case ComponentEnv:
		return r.EnvDir()
	case ComponentModelRepo:
		return r.ModelRepoDir()
	case ComponentCaches:
		return r.PipCacheDir()
	case ComponentScripts:
		return r.StartScript()
	}
	return ""
}

// ComponentPresent reports whether a component's identity check passes.
func (r Root) ComponentPresent(c Component) bool {
	switch c {
	case ComponentCaches:
		for _, dir := range r.CacheDirs() {
			if !dirExists(dir) {
				return false
			}
		}
		return true
	case ComponentScripts:
		for _, f := range r.GeneratedArtifacts() {
			if !fileExists(f) {
				return false
			}
		}
		return true
	default:
		return dirExists(r.ComponentPath(c))
	}
}

// AllComponents lists the components in provisioning dependency order.
func AllComponents() []Component {
	return []Component{
		ComponentConda,
		ComponentEnv,
		ComponentModelRepo,
		ComponentCaches,
		ComponentScripts,
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
