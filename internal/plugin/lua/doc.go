// Package lua serves plug-ins written in Lua.
//
// A Loader maps a directory of a file system to a namespace and every
// *.lua file in it to a plug-in. Files register functions through the
// plugs module:
//
//	local plugs = require("plugs")
//
//	plugs.register("plugin_first", function()
//	  return "first"
//	end, { sort_value = -10, label = "order", doc = "Sorts before the others." })
//
// The options table is optional. The function is returned, so registration
// can be chained into a local definition.
//
// # Sandbox
//
// Each file runs in its own gopher-lua state with the base, package, table,
// string and math libraries. dofile, loadfile, load and loadstring are
// removed; require resolves the built-in modules, the plugs module and the
// other files of the same directory by name. io, os and debug are not
// available.
//
// # Values
//
// Arguments are converted with a Bridge: numbers, strings and booleans map
// to their Lua counterparts, slices and maps (plugin.Kwargs included) to
// tables, structs to tables keyed by field name. Results come back as
// int64, float64, string, bool, []any or map[string]any.
//
// Calls into one file are serialized, and each call is bounded by the
// loader's execution timeout.
package lua
