// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride redirects config directory lookup, bypassing
// os.UserHomeDir. Tests use it to point at a temp directory without
// touching the real home.
var configDirOverride string

// SetConfigDirOverride points config lookup at dir until Reset.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}
