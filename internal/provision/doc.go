// SPDX-License-Identifier: MPL-2.0

// Package provision implements the install and uninstall workflows over the
// environment root.
//
// The Provisioner walks an ordered list of steps, each guarded by a presence
// check: present components are skipped and reported, absent ones are
// installed, and the first hard failure aborts the run. There is no rollback;
// idempotence is the resume mechanism, so a re-run after a failure at step k
// skips everything before k and retries from there.
//
// The Deprovisioner is the independent inverse path. It is best-effort:
// individual removal failures are logged and skipped so a partially broken
// tree still gets cleaned up as far as possible.
//
// All external commands (conda, git, apt-get, pip, python) go through a
// Runner whose exec function is injectable, keeping step logic testable
// without any of those tools installed.
package provision
