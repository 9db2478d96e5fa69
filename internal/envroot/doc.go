// SPDX-License-Identifier: MPL-2.0

// Package envroot models the durable directory tree on the pod's persistent
// volume under which every installed component and generated artifact lives.
//
// The layout is fixed: provisioning, teardown, and status all derive paths
// from the same Root value, so the three workflows can never disagree about
// where a component is. Component presence is defined purely by directory
// existence; no marker files participate in the identity checks.
package envroot
