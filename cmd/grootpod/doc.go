// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for grootpod.
//
// Cobra command handlers hold no business logic: they load configuration,
// wire the provision/serve services through the App composition root, and
// render results. Everything testable lives in the internal packages.
package cmd
