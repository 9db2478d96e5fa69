// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates grootpod configuration.
//
// Configuration comes from a CUE file validated against an embedded schema,
// merged over built-in defaults via Viper. The environment root can also be
// set through the GROOTPOD_ROOT environment variable, which takes precedence
// over the file. All fields are optional; a missing config file means a
// stock deployment.
package config
