// Package config loads logscope's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/logscope/config.toml
//  3. If the file doesn't exist, use Default()
//  4. If the file exists but a field is missing, zero or blank, keep its default
//
// # TOML Format
//
//	chunk_size = 4194304      # bytes read per load step (floor 4096)
//	max_buffer_bytes = 0      # cap on engine storage; 0 means unlimited
//	encoding = "utf-8"        # any ASCII-compatible WHATWG label
//	log_file = ""             # diagnostic log; empty discards
//	tick_ms = 250             # viewer refresh cadence
//
// The encoding label is lower-cased but not validated here; the engine
// rejects labels it cannot decode when the session is built.
//
// # Environment
//
// LOGSCOPE_LOG, when set, replaces log_file. It is the quickest way to get
// diagnostics out of a viewer session, since the terminal belongs to the UI.
//
// # Path Expansion
//
// Paths (the config path and log_file) may be absolute, relative to the
// working directory, or start with "~" for the home directory. All are
// returned absolute.
//
// CLI flags are applied on top of the loaded Config by the caller.
package config
