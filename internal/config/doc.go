// Package config loads the settings of the plugs command.
//
// Settings come from four sources, each overriding the previous one:
//
//  1. Built-in defaults (see Default).
//  2. A TOML file, plugs.toml unless another path is given. Files ending in
//     .yaml or .yml are read as YAML with the same keys.
//  3. Environment variables with the PLUGS_ prefix.
//  4. Command line flags, applied by the caller through Config.Set.
//
// Example file:
//
//	root = "./plugins"
//	private_prefix = "_"
//	execution_timeout = "5s"
//	warn_on_overwrite = true
//
//	[log]
//	level = "debug"
//	format = "json"
package config
