package plugin

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type (
	funcTable   = orderedmap.OrderedMap[string, *Info]
	pluginTable = orderedmap.OrderedMap[string, *funcTable]
)

// memberKey addresses one member of a namespace.
type memberKey struct {
	namespace string
	member    string
}

// pluginEntry is a plug-in name with the sort value used to order it.
type pluginEntry struct {
	name      string
	sortValue int
}

// store is the catalog namespace -> plugin -> func -> *Info.
// Every level keeps insertion order; replacing a leaf keeps its position.
// Stored *Info values are never mutated, a replacement swaps the pointer.
type store struct {
	mu sync.RWMutex

	namespaces *orderedmap.OrderedMap[string, *pluginTable]

	// Members whose code has executed successfully, registered or not.
	imported map[memberKey]bool
}

func newStore() *store {
	return &store{
		namespaces: orderedmap.New[string, *pluginTable](),
		imported:   make(map[memberKey]bool),
	}
}

// put stores info at its (namespace, plugin, func) address, creating
// intermediate tables as needed. It returns the record it replaced, if any.
func (s *store) put(info *Info) (*Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plugins, ok := s.namespaces.Get(info.Namespace)
	if !ok {
		plugins = orderedmap.New[string, *funcTable]()
		s.namespaces.Set(info.Namespace, plugins)
	}
	funcs, ok := plugins.Get(info.Plugin)
	if !ok {
		funcs = orderedmap.New[string, *Info]()
		plugins.Set(info.Plugin, funcs)
	}
	return funcs.Set(info.Func, info)
}

// touchNamespace records that discovery was attempted for namespace.
func (s *store) touchNamespace(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.namespaces.Get(namespace); !ok {
		s.namespaces.Set(namespace, orderedmap.New[string, *funcTable]())
	}
}

func (s *store) hasNamespace(namespace string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.namespaces.Get(namespace)
	return ok
}

// hasPlugin reports whether at least one function is registered for plugin.
func (s *store) hasPlugin(namespace, plugin string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lookupPlugin(namespace, plugin)
	return ok
}

// satisfied reports whether importing the member can be skipped: it either
// registered functions already or its code ran before.
func (s *store) satisfied(namespace, member string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.imported[memberKey{namespace, member}] {
		return true
	}
	_, ok := s.lookupPlugin(namespace, member)
	return ok
}

func (s *store) markImported(namespace, member string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imported[memberKey{namespace, member}] = true
}

func (s *store) isImported(namespace, member string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imported[memberKey{namespace, member}]
}

// plugins returns the plug-ins of namespace in insertion order, each with
// the sort value of its default function: the first unlabeled one, or the
// first registered one when every function is labeled.
func (s *store) plugins(namespace string) []pluginEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plugins, ok := s.namespaces.Get(namespace)
	if !ok {
		return nil
	}
	entries := make([]pluginEntry, 0, plugins.Len())
	for p := plugins.Oldest(); p != nil; p = p.Next() {
		if p.Value.Len() == 0 {
			continue
		}
		entries = append(entries, pluginEntry{
			name:      p.Key,
			sortValue: defaultRecord(p.Value).SortValue,
		})
	}
	return entries
}

func defaultRecord(funcs *funcTable) *Info {
	for f := funcs.Oldest(); f != nil; f = f.Next() {
		if f.Value.Label == "" {
			return f.Value
		}
	}
	return funcs.Oldest().Value
}

// records returns the functions of a plug-in in registration order.
func (s *store) records(namespace, plugin string) ([]*Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	funcs, ok := s.lookupPlugin(namespace, plugin)
	if !ok {
		return nil, false
	}
	out := make([]*Info, 0, funcs.Len())
	for p := funcs.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out, true
}

// record returns one function of a plug-in.
func (s *store) record(namespace, plugin, fn string) (*Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	funcs, ok := s.lookupPlugin(namespace, plugin)
	if !ok {
		return nil, false
	}
	return funcs.Get(fn)
}

// namespaceNames returns all namespaces the store knows about.
func (s *store) namespaceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.namespaces.Len())
	for p := s.namespaces.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

// lookupPlugin must be called with s.mu held.
func (s *store) lookupPlugin(namespace, plugin string) (*funcTable, bool) {
	plugins, ok := s.namespaces.Get(namespace)
	if !ok {
		return nil, false
	}
	funcs, ok := plugins.Get(plugin)
	if !ok || funcs.Len() == 0 {
		return nil, false
	}
	return funcs, true
}
