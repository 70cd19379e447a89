// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory when set.
// os.UserHomeDir() ignores HOME on some platforms, so tests pin it here.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride pins the directory returned by ConfigDir.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
