// Package config handles configuration loading for skystate.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Optional fields get defaults; Load validates the result.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SKYSTATE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/skystate/config.yaml
//  3. ~/.config/skystate/config.yaml
//
// When no file exists the CLI falls back to Default, storing state under
// $XDG_DATA_HOME/skystate (or ~/.local/share/skystate).
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	storage:
//	  path: "${HOME}/.local/share/skystate/state.db"
//
// # Configuration Sections
//
// Storage:
//
//	storage:
//	  path: "/var/lib/skystate/state.db"  # required
//	  legacy_key: "root"                   # default "root"
//	  state_key: "BSKY_STORAGE"            # default "BSKY_STORAGE"
//
// Locale (used to build default language preferences):
//
//	locale:
//	  device_locales: ["en", "ja"]
//
// Migration:
//
//	migration:
//	  skip: false
//	  timeout: "10s"   # 0 disables the bound
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The same sections are accepted in TOML when the file name ends in .toml:
//
//	[storage]
//	path = "/var/lib/skystate/state.db"
//
// # Validation
//
// Load() validates:
//
//   - storage.path is set
//   - legacy and state keys differ
//   - device locales are non-empty
//   - migration.timeout parses and is not negative
//   - logging level and format values
package config
