package plugin

import "sync/atomic"

var (
	staticModules = NewStaticLoader()
	defaultReg    atomic.Pointer[Registry]
)

func init() {
	defaultReg.Store(New(staticModules))
}

// Default returns the process-wide registry. It discovers the modules added
// with Provide and ProvideModule.
func Default() *Registry {
	return defaultReg.Load()
}

// SetDefault replaces the process-wide registry, for example to attach a
// logger. Use Modules to build one over the same Go modules.
func SetDefault(r *Registry) {
	if r == nil {
		panic("plugin: nil default registry")
	}
	defaultReg.Store(r)
}

// Modules returns the process-wide static loader.
func Modules() *StaticLoader {
	return staticModules
}

// Provide adds the calling package as a plug-in module of the process-wide
// static loader. Call it from init:
//
//	func init() {
//		plugin.Provide("Greetings in several languages.", func(r *plugin.Registrar) error {
//			r.Register(Hello, plugin.Doc("Say hello."))
//			return nil
//		})
//	}
func Provide(doc string, body ModuleFunc) {
	staticModules.ProvideModule(callerPackage(2), doc, body)
}

// ProvideModule adds a module under path to the process-wide static loader.
func ProvideModule(path, doc string, body ModuleFunc) {
	staticModules.ProvideModule(path, doc, body)
}

// Register records fn in the default registry. See Registry.Register.
func Register(fn any, opts ...RegisterOption) any {
	return Default().Register(fn, opts...)
}

// Names calls Names on the default registry.
func Names(namespace string) ([]string, error) {
	return Default().Names(namespace)
}

// Funcs calls Funcs on the default registry.
func Funcs(namespace, plugin, label string) ([]string, error) {
	return Default().Funcs(namespace, plugin, label)
}

// Labels calls Labels on the default registry.
func Labels(namespace, plugin string) ([]string, error) {
	return Default().Labels(namespace, plugin)
}

// Describe calls Info on the default registry.
func Describe(namespace, plugin string, sel Selector) (*Info, error) {
	return Default().Info(namespace, plugin, sel)
}

// Exists calls Exists on the default registry.
func Exists(namespace, plugin string) (bool, error) {
	return Default().Exists(namespace, plugin)
}

// Get calls Get on the default registry.
func Get(namespace, plugin string, sel Selector) (any, error) {
	return Default().Get(namespace, plugin, sel)
}

// Call calls Call on the default registry.
func Call(namespace, plugin string, sel Selector, args ...any) (any, error) {
	return Default().Call(namespace, plugin, sel, args...)
}
