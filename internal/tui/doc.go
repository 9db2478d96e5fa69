// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive terminal components of the grootpod
// CLI. Destructive operations route through the confirmation prompt here;
// non-interactive invocations bypass it with explicit flags instead.
package tui
