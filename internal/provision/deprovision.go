// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"os"
	"path/filepath"

	"grootpod-cli/internal/envroot"

	"github.com/charmbracelet/log"
)

// Removal outcomes.
const (
	// RemovalRemoved means the path existed and was deleted.
	RemovalRemoved RemovalStatus = "removed"
	// RemovalAbsent means the path was never there; nothing to do.
	RemovalAbsent RemovalStatus = "absent"
	// RemovalFailed means deletion failed; cleanup continued regardless.
	RemovalFailed RemovalStatus = "failed"
)

type (
	// RemovalStatus is the outcome of one removal target.
	RemovalStatus string

	// RemovalResult records what happened to one target path.
	RemovalResult struct {
		// Target names the component or artifact.
		Target string

		// Path is the filesystem path that was removed (or attempted).
		Path string

		// Status is the removal outcome.
		Status RemovalStatus

		// Err is the failure cause when Status is RemovalFailed.
		Err error
	}

	// removalTarget is one named path the Deprovisioner deletes.
	removalTarget struct {
		name string
		path string
	}

	// Deprovisioner removes everything the Provisioner can create.
	// Removal is best-effort: failures are logged and skipped so a partially
	// broken tree still gets cleaned up as far as possible. Removal order
	// does not matter; components have no cross-dependency at delete time.
	Deprovisioner struct {
		root   envroot.Root
		logger *log.Logger
	}
)

// NewDeprovisioner creates a Deprovisioner over the given root.
func NewDeprovisioner(root envroot.Root, logger *log.Logger) *Deprovisioner {
	return &Deprovisioner{root: root, logger: logger}
}

// NothingToDo reports whether the environment root is absent entirely.
// Deprovisioning a non-existent root is vacuously successful, not an error.
func (d *Deprovisioner) NothingToDo() bool {
	return !d.root.Exists()
}

// Run removes every component installation and generated artifact under the
// root. It never returns an error: individual failures are recorded in the
// results and cleanup continues past them.
func (d *Deprovisioner) Run(ctx context.Context) []RemovalResult {
	var results []RemovalResult
	for _, target := range d.targets() {
		select {
		case <-ctx.Done():
			return results
		default:
		}
		results = append(results, d.remove(target))
	}
	return results
}

// targets enumerates everything a full provisioning run can leave behind.
func (d *Deprovisioner) targets() []removalTarget {
	targets := []removalTarget{
		{string(envroot.ComponentConda), d.root.CondaDir()},
		{string(envroot.ComponentEnv), filepath.Dir(d.root.EnvDir())},
		{string(envroot.ComponentModelRepo), d.root.ModelRepoDir()},
		{string(envroot.ComponentCaches), filepath.Join(d.root.String(), "cache")},
	}
	for _, artifact := range d.root.GeneratedArtifacts() {
		targets = append(targets, removalTarget{"generated artifact", artifact})
	}
	targets = append(targets, removalTarget{"state manifest", d.root.ManifestFile()})
	return targets
}

// SystemCondaPaths lists the locations a system-wide (non-isolated) conda
// installation and its registered environments typically occupy. Removing
// these mutates state outside the environment root and can affect other
// tenants of the host, so callers must confirm it separately.
func SystemCondaPaths() []string {
	paths := []string{"/opt/conda"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "miniconda3"),
			filepath.Join(home, "anaconda3"),
			filepath.Join(home, ".conda"),
			filepath.Join(home, ".condarc"),
		)
	}
	return paths
}

// RemoveSystemConda best-effort deletes a system-wide conda installation.
func (d *Deprovisioner) RemoveSystemConda(ctx context.Context) []RemovalResult {
	var results []RemovalResult
	for _, path := range SystemCondaPaths() {
		select {
		case <-ctx.Done():
			return results
		default:
		}
		results = append(results, d.remove(removalTarget{"system-wide conda", path}))
	}
	return results
}

func (d *Deprovisioner) remove(target removalTarget) RemovalResult {
	if _, err := os.Lstat(target.path); os.IsNotExist(err) {
		return RemovalResult{Target: target.name, Path: target.path, Status: RemovalAbsent}
	}

	if err := os.RemoveAll(target.path); err != nil {
		d.logger.Warn("could not remove; continuing cleanup", "target", target.name, "path", target.path, "err", err)
		return RemovalResult{Target: target.name, Path: target.path, Status: RemovalFailed, Err: err}
	}

	d.logger.Info("removed", "target", target.name, "path", target.path)
	return RemovalResult{Target: target.name, Path: target.path, Status: RemovalRemoved}
}
