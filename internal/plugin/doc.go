// Package plugin provides plug-in registration and discovery.
//
// Plug-in functions are grouped in three levels: a namespace holds plug-ins,
// a plug-in holds functions. A namespace is a directory-like path, and each
// plug-in is one member of it: a Go package below the namespace path, or a
// script file inside a directory (see the lua subpackage).
//
// # Registering
//
// Go plug-ins provide a module body from init. The body runs the first time
// the registry looks for the plug-in:
//
//	package parts // example.com/app/plugins/parts
//
//	func init() {
//		plugin.Provide("Parts of a plug-in.", func(r *plugin.Registrar) error {
//			r.Register(PluginDefault, plugin.Doc("The first function is the default."))
//			r.Register(PluginNext)
//			r.Register(PluginFinal, plugin.Label("final"))
//			return nil
//		})
//	}
//
// A function is addressed by its name. Registering with plugin.Label puts it
// in a labeled partition; plugin.SortValue orders plug-ins in Names.
//
// # Looking up
//
//	names, err := plugin.Names("example.com/app/plugins")
//	res, err := plugin.Call("example.com/app/plugins", "parts", plugin.Selector{}, "arg")
//	fn, err := plugin.GetAs[func(string) string](plugin.Default(), "example.com/app/plugins", "parts", plugin.Func("PluginNext"))
//
// Names discovers every member of a namespace. The other lookups import only
// the member they are asked about. A member's code runs at most once per
// registry; errors of one member never stop discovery of the others.
//
// # Errors
//
// Every lookup error wraps ErrPlugin. Missing targets are reported as
// *UnknownPackageError, *UnknownPluginError or *UnknownPluginFunctionError,
// matched with errors.Is against ErrUnknownPackage, ErrUnknownPlugin and
// ErrUnknownPluginFunction. Errors returned by plug-in functions and by
// failing member code are passed through unchanged.
//
// # Loaders
//
// A Registry gets its members from a Loader. StaticLoader serves Go modules
// compiled into the binary; the lua subpackage serves Lua files from any
// fs.FS. Loaders report missing targets with *NotFoundError.
package plugin
