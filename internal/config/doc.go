// SPDX-License-Identifier: MPL-2.0

// Package config handles modsys configuration using Viper with CUE as the file format.
//
// Configuration is looked up, in order, from an explicit --config file, from
// config.cue in the platform config directory ($XDG_CONFIG_HOME/modsys on Linux,
// ~/Library/Application Support/modsys on macOS, %APPDATA%\modsys on Windows),
// and from modsys.cue in the working directory. MODSYS_* environment variables
// override file values (MODSYS_MODULES_DIR, MODSYS_LOG_LEVEL).
//
// Files are validated against an embedded CUE schema (config_schema.cue) before
// they are merged over the defaults.
package config
