// SPDX-License-Identifier: MPL-2.0

// Package serve defines the runtime configuration surface of the inference
// entry point: the recognized environment variables, their documented
// defaults, and the exact command-line contract of inference_service.py.
//
// Both the generated start_inference.sh artifact and the 'grootpod start'
// command derive their invocation from this package, so the two launch paths
// cannot drift apart.
package serve
