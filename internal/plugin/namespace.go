package plugin

// Namespace is a view of a registry bound to one namespace. Its methods
// behave exactly like the Registry methods of the same name.
type Namespace struct {
	registry *Registry
	name     string
}

// Namespace returns a view of r bound to namespace.
func (r *Registry) Namespace(namespace string) *Namespace {
	return &Namespace{registry: r, name: namespace}
}

// Name returns the namespace the view is bound to.
func (n *Namespace) Name() string { return n.name }

// Names returns the plug-in names ordered by sort value.
func (n *Namespace) Names() ([]string, error) {
	return n.registry.Names(n.name)
}

// Funcs returns the functions of plugin registered with label.
func (n *Namespace) Funcs(plugin, label string) ([]string, error) {
	return n.registry.Funcs(n.name, plugin, label)
}

// Labels returns the labels used in plugin.
func (n *Namespace) Labels(plugin string) ([]string, error) {
	return n.registry.Labels(n.name, plugin)
}

// Info returns the record of the selected function.
func (n *Namespace) Info(plugin string, sel Selector) (*Info, error) {
	return n.registry.Info(n.name, plugin, sel)
}

// Exists reports whether plugin has registered functions.
func (n *Namespace) Exists(plugin string) (bool, error) {
	return n.registry.Exists(n.name, plugin)
}

// Get returns the callable of the selected function.
func (n *Namespace) Get(plugin string, sel Selector) (any, error) {
	return n.registry.Get(n.name, plugin, sel)
}

// Call invokes the selected function.
func (n *Namespace) Call(plugin string, sel Selector, args ...any) (any, error) {
	return n.registry.Call(n.name, plugin, sel, args...)
}

// Factories return the lookup functions with the namespace argument bound.

// NamesFactory binds Names to namespace.
func (r *Registry) NamesFactory(namespace string) func() ([]string, error) {
	return r.Namespace(namespace).Names
}

// FuncsFactory binds Funcs to namespace.
func (r *Registry) FuncsFactory(namespace string) func(plugin, label string) ([]string, error) {
	return r.Namespace(namespace).Funcs
}

// LabelsFactory binds Labels to namespace.
func (r *Registry) LabelsFactory(namespace string) func(plugin string) ([]string, error) {
	return r.Namespace(namespace).Labels
}

// InfoFactory binds Info to namespace.
func (r *Registry) InfoFactory(namespace string) func(plugin string, sel Selector) (*Info, error) {
	return r.Namespace(namespace).Info
}

// ExistsFactory binds Exists to namespace.
func (r *Registry) ExistsFactory(namespace string) func(plugin string) (bool, error) {
	return r.Namespace(namespace).Exists
}

// GetFactory binds Get to namespace.
func (r *Registry) GetFactory(namespace string) func(plugin string, sel Selector) (any, error) {
	return r.Namespace(namespace).Get
}

// CallFactory binds Call to namespace.
func (r *Registry) CallFactory(namespace string) func(plugin string, sel Selector, args ...any) (any, error) {
	return r.Namespace(namespace).Call
}
