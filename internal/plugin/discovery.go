package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// importOne makes sure the member has executed. A member that registered
// functions or ran before is not executed again. A failed load records
// nothing, so the next call retries it.
func (r *Registry) importOne(namespace, plugin string) error {
	if r.store.satisfied(namespace, plugin) {
		return nil
	}

	_, err, _ := r.loads.Do(namespace+"\x00"+plugin, func() (any, error) {
		// Another caller may have finished the load while we waited.
		if r.store.satisfied(namespace, plugin) {
			return nil, nil
		}

		r.log.Debug("loading plug-in", "namespace", namespace, "plugin", plugin)
		reg := &Registrar{registry: r, namespace: namespace, plugin: plugin}
		if docs, ok := r.loader.(moduleDocs); ok {
			reg.moduleDoc, _ = docs.ModuleDoc(joinPath(namespace, plugin))
		}
		if err := r.loader.Load(namespace, plugin, reg); err != nil {
			return nil, asUnknown(err, namespace, plugin)
		}

		r.store.markImported(namespace, plugin)
		r.log.Debug("loaded plug-in", "namespace", namespace, "plugin", plugin,
			"registered", reg.Registered())
		return nil, nil
	})
	return err
}

// ImportAll executes every eligible member of namespace that has not run yet.
// Members whose name starts with the private prefix or lacks the loader's
// suffix are skipped. Failures of individual members are logged and
// discarded so that one broken member never hides its siblings.
//
// ImportAll returns *UnknownPackageError when neither the loader nor a
// direct registration knows the namespace. Calling it again picks up members added since the last call.
func (r *Registry) ImportAll(namespace string) error {
	members, err := r.loader.Members(namespace)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			// Functions registered directly live in namespaces the loader
			// does not serve.
			if r.store.hasNamespace(namespace) {
				return nil
			}
			return &UnknownPackageError{Namespace: namespace}
		}
		return fmt.Errorf("listing %q: %w", namespace, err)
	}
	r.store.touchNamespace(namespace)

	log := r.log.WithFields(map[string]any{
		"scan":      uuid.NewString(),
		"namespace": namespace,
	})
	suffix := r.loader.Suffix()
	loaded := 0
	for _, entry := range members {
		plugin, ok := r.eligible(entry, suffix)
		if !ok {
			continue
		}
		if r.store.satisfied(namespace, plugin) {
			continue
		}
		if err := r.importOne(namespace, plugin); err != nil {
			log.Warn("skipping plug-in that failed to load", "plugin", plugin, "error", err)
			continue
		}
		loaded++
	}
	log.Debug("namespace scanned", "members", len(members), "loaded", loaded)
	return nil
}

// eligible reports whether a namespace entry is a plug-in member and returns
// the plug-in name it stands for.
func (r *Registry) eligible(entry, suffix string) (string, bool) {
	if r.privatePrefix != "" && strings.HasPrefix(entry, r.privatePrefix) {
		return "", false
	}
	if !strings.HasSuffix(entry, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(entry, suffix)
	if name == "" {
		return "", false
	}
	return name, true
}
