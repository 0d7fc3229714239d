// Package config loads questlog's TOML configuration.
//
// Values are layered: built-in defaults, then the config file, then
// command line flags applied by the caller. A missing file is not an error.
//
//	[store]
//	max_pool_size = 4
//	busy_timeout_ms = 5000
//	journal_mode = "WAL"
//
//	[startup]
//	parallelism = 4
//
//	[log]
//	level = "debug"
//	format = "json"
package config
