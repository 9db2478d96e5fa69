// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities for the
// configuration loader: size guarding before compilation and error
// formatting with JSON-path context.
package cueutil
