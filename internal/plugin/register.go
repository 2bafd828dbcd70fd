package plugin

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

type registration struct {
	name      string
	doc       string
	label     string
	sortValue int
}

// SortValue sets the value plug-in names are ordered by. Default 0.
func SortValue(n int) RegisterOption {
	return func(r *registration) {
		r.sortValue = n
	}
}

// Label puts the function in a labeled partition of its plug-in.
func Label(label string) RegisterOption {
	return func(r *registration) {
		r.label = label
	}
}

// Doc sets the function documentation. The first paragraph becomes the
// description, the rest the long documentation.
func Doc(doc string) RegisterOption {
	return func(r *registration) {
		r.doc = doc
	}
}

// Name overrides the function name. It is required for closures and method
// values, whose symbol is not a plain identifier.
func Name(name string) RegisterOption {
	return func(r *registration) {
		r.name = name
	}
}

// Register records fn as a plug-in function and returns it unchanged.
//
// The defining module is derived from the function symbol: a function
// PluginDefault declared in package example.com/app/plugins/parts is
// registered in namespace "example.com/app/plugins", plug-in "parts", under
// the name "PluginDefault". Registering the same address again replaces the
// earlier record.
//
// Register panics when fn is not callable or its name cannot be derived,
// the way a bad registration fails while the defining module initializes.
func (r *Registry) Register(fn any, opts ...RegisterOption) any {
	checkCallable(fn)

	sym := symbolOf(fn)
	pkgPath, symName := parseSymbol(sym)
	if pkgPath == "" {
		panic(fmt.Sprintf("plugin: cannot derive the defining module of %s", describe(fn, sym)))
	}
	namespace, plugin := splitModule(pkgPath)

	var moduleDoc string
	if docs, ok := r.loader.(moduleDocs); ok {
		moduleDoc, _ = docs.ModuleDoc(pkgPath)
	}

	r.put(namespace, plugin, moduleDoc, fn, symName, sym, opts)
	return fn
}

// Registrar registers functions on behalf of the member a Loader is executing.
// Namespace, plug-in name and module documentation are fixed by the member.
type Registrar struct {
	registry  *Registry
	namespace string
	plugin    string
	moduleDoc string
	count     int
}

// Namespace returns the namespace of the member being loaded.
func (g *Registrar) Namespace() string {
	return g.namespace
}

// Plugin returns the name of the member being loaded.
func (g *Registrar) Plugin() string {
	return g.plugin
}

// SetModuleDoc sets the documentation of the member. It applies to functions
// registered afterwards.
func (g *Registrar) SetModuleDoc(doc string) {
	g.moduleDoc = doc
}

// Registered returns the number of registrations made through g.
func (g *Registrar) Registered() int {
	return g.count
}

// Register records fn as a function of the member being loaded and returns
// it unchanged. Callables that are not Go functions (see Invoker) need the
// Name option. Register panics when fn is not callable or unnamed.
func (g *Registrar) Register(fn any, opts ...RegisterOption) any {
	checkCallable(fn)

	var sym, symName string
	if _, ok := fn.(Invoker); !ok {
		sym = symbolOf(fn)
		_, symName = parseSymbol(sym)
	}
	g.registry.put(g.namespace, g.plugin, g.moduleDoc, fn, symName, sym, opts)
	g.count++
	return fn
}

// put builds the record and stores it.
func (r *Registry) put(namespace, plugin, moduleDoc string, fn any, symName, sym string, opts []RegisterOption) {
	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	name := reg.name
	if name == "" {
		name = symName
	}
	if !plainName(name) {
		panic(fmt.Sprintf("plugin: cannot derive a function name for %s; use plugin.Name", describe(fn, sym)))
	}

	description, doc := splitDoc(reg.doc)
	info := &Info{
		Namespace:   namespace,
		Plugin:      plugin,
		Func:        name,
		Callable:    fn,
		Description: description,
		Doc:         doc,
		ModuleDoc:   moduleDoc,
		SortValue:   reg.sortValue,
		Label:       reg.label,
	}

	_, replaced := r.store.put(info)
	if replaced && r.warnOnOverwrite {
		r.log.Warn("plug-in function registered again; replacing earlier record",
			"namespace", namespace, "plugin", plugin, "func", name)
		return
	}
	r.log.Debug("registered plug-in function",
		"namespace", namespace, "plugin", plugin, "func", name, "label", info.Label)
}

func checkCallable(fn any) {
	if fn == nil {
		panic("plugin: cannot register nil")
	}
	if _, ok := fn.(Invoker); ok {
		return
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("plugin: cannot register %T: %v", fn, ErrNotCallable))
	}
}

// symbolOf returns the linker symbol of a Go function value.
func symbolOf(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// parseSymbol splits a symbol such as "example.com/app/parts.PluginDefault"
// into its package path and the name inside the package. Dots in the last
// path element are escaped as %2e by the linker.
func parseSymbol(sym string) (pkgPath, name string) {
	slash := strings.LastIndex(sym, "/")
	dot := strings.Index(sym[slash+1:], ".")
	if dot < 0 {
		return "", sym
	}
	dot += slash + 1
	pkgPath = strings.ReplaceAll(sym[:dot], "%2e", ".")
	name = sym[dot+1:]
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i] // generic instantiation
	}
	return pkgPath, name
}

// splitModule splits a module path at its last separator.
func splitModule(path string) (namespace, plugin string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// plainName reports whether name can address a function: closures
// ("init.func1") and methods ("(*T).M-fm") cannot.
func plainName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".()-[]* \t\n")
}

func describe(fn any, sym string) string {
	if sym != "" {
		return sym
	}
	return fmt.Sprintf("%T", fn)
}
