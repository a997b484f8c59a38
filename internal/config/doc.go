// SPDX-License-Identifier: MPL-2.0

// Package config handles srcpack configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/srcpack/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/srcpack/config.cue on macOS, %APPDATA%\srcpack\config.cue
// on Windows), falling back to ./config.cue. SRCPACK_* environment variables override file
// values and may themselves come from a .env file in the working directory.
//
// Configuration files are validated against an embedded CUE schema (config_schema.cue)
// before being merged over the defaults.
package config
