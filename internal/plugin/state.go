package plugin

// NamespaceState describes what the registry knows about a namespace.
type NamespaceState int

// Namespace states.
const (
	// NamespaceUnknown - Never discovered or registered into.
	NamespaceUnknown NamespaceState = iota

	// NamespaceEmpty - Discovery was attempted but no plug-in registered.
	NamespaceEmpty

	// NamespacePopulated - At least one plug-in has registered functions.
	NamespacePopulated
)

// String returns a string representation of the state.
func (s NamespaceState) String() string {
	switch s {
	case NamespaceUnknown:
		return "unknown"
	case NamespaceEmpty:
		return "empty"
	case NamespacePopulated:
		return "populated"
	default:
		return "invalid"
	}
}

// PluginState describes what the registry knows about one member.
type PluginState int

// Plug-in states.
const (
	// PluginUnimported - The member's code has not run.
	PluginUnimported PluginState = iota

	// PluginImported - The member ran but registered nothing.
	PluginImported

	// PluginRegistered - The member has registered functions.
	PluginRegistered
)

// String returns a string representation of the state.
func (s PluginState) String() string {
	switch s {
	case PluginUnimported:
		return "unimported"
	case PluginImported:
		return "imported"
	case PluginRegistered:
		return "registered"
	default:
		return "invalid"
	}
}

// IsAvailable returns true if the plug-in can be looked up.
func (s PluginState) IsAvailable() bool {
	return s == PluginRegistered
}

// NamespaceState reports the state of namespace without triggering discovery.
func (r *Registry) NamespaceState(namespace string) NamespaceState {
	if !r.store.hasNamespace(namespace) {
		return NamespaceUnknown
	}
	if len(r.store.plugins(namespace)) == 0 {
		return NamespaceEmpty
	}
	return NamespacePopulated
}

// PluginState reports the state of a member without importing it.
func (r *Registry) PluginState(namespace, plugin string) PluginState {
	switch {
	case r.store.hasPlugin(namespace, plugin):
		return PluginRegistered
	case r.store.isImported(namespace, plugin):
		return PluginImported
	default:
		return PluginUnimported
	}
}
