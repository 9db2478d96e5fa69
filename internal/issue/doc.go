// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-facing errors for the grootpod CLI.
//
// Provisioning failures are almost always environmental (missing volume mount,
// unreachable package mirror, broken conda state) and the operator fixing them
// is usually not the person who wrote the tooling. ActionableError therefore
// carries the attempted operation, the resource involved, and concrete
// remediation suggestions alongside the underlying cause.
package issue
