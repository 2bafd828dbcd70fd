package plugin

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ModuleFunc is the body of a Go plug-in module. It runs once, when the
// module is first discovered, and registers the module's functions.
// An error means the module failed to load.
type ModuleFunc func(r *Registrar) error

type staticModule struct {
	doc  string
	body ModuleFunc
}

// StaticLoader serves plug-in modules compiled into the binary. Modules are
// added with Provide, usually from a package init function, and their bodies
// run lazily when the registry discovers them.
type StaticLoader struct {
	mu      sync.RWMutex
	modules *orderedmap.OrderedMap[string, *staticModule]
}

// NewStaticLoader creates an empty static loader.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{
		modules: orderedmap.New[string, *staticModule](),
	}
}

// Provide adds a module named after the package of the calling function.
// Called from example.com/app/plugins/parts it provides plug-in "parts" in
// namespace "example.com/app/plugins".
func (l *StaticLoader) Provide(doc string, body ModuleFunc) {
	l.ProvideModule(callerPackage(2), doc, body)
}

// ProvideModule adds a module under an explicit slash-separated path.
// It panics when the path is empty or already provided.
func (l *StaticLoader) ProvideModule(path, doc string, body ModuleFunc) {
	if path == "" || strings.HasSuffix(path, "/") {
		panic(fmt.Sprintf("plugin: invalid module path %q", path))
	}
	if body == nil {
		panic(fmt.Sprintf("plugin: module %q has no body", path))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.modules.Get(path); ok {
		panic(fmt.Sprintf("plugin: module %q provided twice", path))
	}
	l.modules.Set(path, &staticModule{doc: doc, body: body})
}

// Suffix returns "": every module is a candidate.
func (l *StaticLoader) Suffix() string { return "" }

// Members lists the modules directly inside namespace in the order they
// were provided. A namespace no module lives under is not found.
func (l *StaticLoader) Members(namespace string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.knowsNamespace(namespace) {
		return nil, &NotFoundError{Kind: TargetPackage, Namespace: namespace}
	}
	var members []string
	for p := l.modules.Oldest(); p != nil; p = p.Next() {
		if ns, member := splitModule(p.Key); ns == namespace {
			members = append(members, member)
		}
	}
	return members, nil
}

// Load runs the body of the module.
func (l *StaticLoader) Load(namespace, member string, r *Registrar) error {
	l.mu.RLock()
	mod, ok := l.modules.Get(joinPath(namespace, member))
	known := ok || l.knowsNamespace(namespace)
	l.mu.RUnlock()

	if !ok {
		kind := TargetPlugin
		if !known {
			kind = TargetPackage
		}
		return &NotFoundError{Kind: kind, Namespace: namespace, Member: member}
	}
	r.SetModuleDoc(mod.doc)
	return mod.body(r)
}

// ModuleDoc returns the documentation of the module at path.
func (l *StaticLoader) ModuleDoc(path string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mod, ok := l.modules.Get(path)
	if !ok {
		return "", false
	}
	return mod.doc, true
}

// Modules returns the paths of all provided modules.
func (l *StaticLoader) Modules() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	paths := make([]string, 0, l.modules.Len())
	for p := l.modules.Oldest(); p != nil; p = p.Next() {
		paths = append(paths, p.Key)
	}
	return paths
}

// knowsNamespace must be called with l.mu held.
func (l *StaticLoader) knowsNamespace(namespace string) bool {
	prefix := namespace + "/"
	for p := l.modules.Oldest(); p != nil; p = p.Next() {
		if namespace == "" || strings.HasPrefix(p.Key, prefix) {
			return true
		}
	}
	return false
}

// callerPackage returns the package path of the function skip frames up.
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		panic("plugin: cannot determine the calling package")
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		panic("plugin: cannot determine the calling package")
	}
	pkgPath, _ := parseSymbol(f.Name())
	if pkgPath == "" {
		panic(fmt.Sprintf("plugin: cannot derive a package from %s", f.Name()))
	}
	return pkgPath
}
