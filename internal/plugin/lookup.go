package plugin

import (
	"errors"
	"slices"
	"sort"
)

// Selector picks one function of a plug-in. The zero value selects the
// first unlabeled function registered.
type Selector struct {
	// Func names the function. Empty selects the first function registered
	// with Label.
	Func string
	// Label selects the labeled partition. Empty means unlabeled.
	Label string
}

// Func selects a function by name in the unlabeled partition.
func Func(name string) Selector {
	return Selector{Func: name}
}

// Labeled selects the first function registered with label.
func Labeled(label string) Selector {
	return Selector{Label: label}
}

// Names discovers every member of namespace and returns the plug-in names
// ordered by sort value. Plug-ins with equal sort values keep the order
// they were first registered in.
func (r *Registry) Names(namespace string) ([]string, error) {
	if err := r.ImportAll(namespace); err != nil {
		return nil, err
	}

	entries := r.store.plugins(namespace)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sortValue < entries[j].sortValue
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

// Funcs returns the functions of a plug-in registered with exactly label,
// in registration order.
func (r *Registry) Funcs(namespace, plugin, label string) ([]string, error) {
	records, err := r.load(namespace, plugin)
	if err != nil {
		return nil, err
	}
	return funcsWithLabel(records, label), nil
}

// Labels returns the distinct non-empty labels used in a plug-in, sorted.
func (r *Registry) Labels(namespace, plugin string) ([]string, error) {
	records, err := r.load(namespace, plugin)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, info := range records {
		if info.Label != "" && !slices.Contains(labels, info.Label) {
			labels = append(labels, info.Label)
		}
	}
	slices.Sort(labels)
	return labels, nil
}

// Info returns the record of the selected function.
//
// Without sel.Func the first function registered with sel.Label is chosen.
// A function that exists under a different label than sel.Label is not
// found: labels partition a plug-in strictly.
func (r *Registry) Info(namespace, plugin string, sel Selector) (*Info, error) {
	records, err := r.load(namespace, plugin)
	if err != nil {
		return nil, err
	}

	name := sel.Func
	if name == "" {
		if funcs := funcsWithLabel(records, sel.Label); len(funcs) > 0 {
			name = funcs[0]
		}
	}
	for _, info := range records {
		if info.Func == name && info.Label == sel.Label {
			return info, nil
		}
	}
	return nil, &UnknownPluginFunctionError{
		Namespace: namespace,
		Plugin:    plugin,
		Func:      name,
		Label:     sel.Label,
	}
}

// Exists reports whether plugin has registered functions, importing the
// member if needed. Missing members and namespaces report false without an
// error; failures of the member's own code are returned.
func (r *Registry) Exists(namespace, plugin string) (bool, error) {
	if r.store.hasPlugin(namespace, plugin) {
		return true, nil
	}
	if err := r.importOne(namespace, plugin); err != nil {
		if errors.Is(err, ErrUnknownPlugin) || errors.Is(err, ErrUnknownPackage) {
			return false, nil
		}
		return false, err
	}
	return r.store.hasPlugin(namespace, plugin), nil
}

// Get returns the callable of the selected function.
func (r *Registry) Get(namespace, plugin string, sel Selector) (any, error) {
	info, err := r.Info(namespace, plugin, sel)
	if err != nil {
		return nil, err
	}
	return info.Callable, nil
}

// Call invokes the selected function with args. Errors returned by the
// function itself are passed through unchanged.
func (r *Registry) Call(namespace, plugin string, sel Selector, args ...any) (any, error) {
	fn, err := r.Get(namespace, plugin, sel)
	if err != nil {
		return nil, err
	}
	return invoke(fn, args)
}

// load imports the member and returns its records, or *UnknownPluginError
// when the member ran without registering anything.
func (r *Registry) load(namespace, plugin string) ([]*Info, error) {
	if err := r.importOne(namespace, plugin); err != nil {
		return nil, err
	}
	records, ok := r.store.records(namespace, plugin)
	if !ok {
		return nil, &UnknownPluginError{Namespace: namespace, Plugin: plugin}
	}
	return records, nil
}

func funcsWithLabel(records []*Info, label string) []string {
	names := make([]string, 0, len(records))
	for _, info := range records {
		if info.Label == label {
			names = append(names, info.Func)
		}
	}
	return names
}
