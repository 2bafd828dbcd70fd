package plugin

import (
	"github.com/dshills/plugs/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultPrivatePrefix marks namespace entries that discovery skips.
const DefaultPrivatePrefix = "_"

// Registry is the catalog of registered plug-in functions together with the
// loader that populates it. A Registry is safe for concurrent use.
type Registry struct {
	store  *store
	loader Loader
	log    *logging.Logger

	privatePrefix   string
	warnOnOverwrite bool

	// loads collapses concurrent imports of the same member.
	loads singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPrivatePrefix sets the prefix of namespace entries skipped by discovery.
// An empty prefix makes every entry eligible.
func WithPrivatePrefix(prefix string) Option {
	return func(r *Registry) {
		r.privatePrefix = prefix
	}
}

// WithWarnOnOverwrite logs a warning whenever a registration replaces an
// existing function record.
func WithWarnOnOverwrite(warn bool) Option {
	return func(r *Registry) {
		r.warnOnOverwrite = warn
	}
}

// New creates a registry backed by loader. A nil loader knows no namespaces.
func New(loader Loader, opts ...Option) *Registry {
	if loader == nil {
		loader = nopLoader{}
	}
	r := &Registry{
		store:         newStore(),
		loader:        loader,
		log:           logging.Nop(),
		privatePrefix: DefaultPrivatePrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("plugin")
	return r
}

// Loader returns the loader the registry discovers plug-ins with.
func (r *Registry) Loader() Loader {
	return r.loader
}

// Namespaces returns every namespace that has been discovered or registered into.
func (r *Registry) Namespaces() []string {
	return r.store.namespaceNames()
}
