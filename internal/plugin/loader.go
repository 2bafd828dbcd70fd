package plugin

// Loader executes the code of namespace members and lists namespaces.
//
// Implementations report missing targets with a *NotFoundError carrying the
// namespace and member they looked for, so the registry can tell a missing
// namespace from a missing member without inspecting messages. Any other
// error returned from Load is treated as a failure of the member's own code
// and reaches the caller unchanged.
type Loader interface {
	// Suffix is the entry suffix that marks plug-in source members, such as
	// ".lua". An empty suffix accepts every entry.
	Suffix() string

	// Members lists the entries of namespace in a stable order.
	Members(namespace string) ([]string, error)

	// Load executes the member's top-level code. Registrations made while it
	// runs go through r.
	Load(namespace, member string, r *Registrar) error
}

// moduleDocs is implemented by loaders that know the documentation of the
// modules they serve.
type moduleDocs interface {
	ModuleDoc(path string) (string, bool)
}

// nopLoader knows no namespaces. Registries built without a loader only see
// what is registered directly.
type nopLoader struct{}

func (nopLoader) Suffix() string { return "" }

func (nopLoader) Members(namespace string) ([]string, error) {
	return nil, &NotFoundError{Kind: TargetPackage, Namespace: namespace}
}

func (nopLoader) Load(namespace, member string, _ *Registrar) error {
	return &NotFoundError{Kind: TargetPackage, Namespace: namespace, Member: member}
}

// joinPath joins a namespace and a member into a module path.
func joinPath(namespace, member string) string {
	if namespace == "" {
		return member
	}
	return namespace + "/" + member
}
