// Package watch reports plug-ins that appear in namespace directories while
// a program runs.
//
// A Watcher listens for file system events with fsnotify and, once the events
// for a namespace have settled, scans the namespace again through the
// registry. Members that were already imported are never executed again, so a
// scan only picks up new files. Editing an imported member has no effect
// until the process restarts.
package watch

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/plugs/internal/logging"
	"github.com/dshills/plugs/internal/plugin"
	"github.com/fsnotify/fsnotify"
)

// Watcher errors.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("namespace is already being watched")
	ErrNotWatching     = errors.New("namespace is not being watched")
)

// DefaultDebounce is how long a namespace must be quiet before it is scanned.
const DefaultDebounce = 100 * time.Millisecond

// Discovery lists plug-ins found in a namespace since the previous scan.
type Discovery struct {
	Namespace string
	Names     []string
	Time      time.Time
}

// Watcher rescans watched namespaces when plug-in files are created or
// changed beneath root.
type Watcher struct {
	mu sync.Mutex

	registry *plugin.Registry
	fsw      *fsnotify.Watcher
	root     string
	log      *logging.Logger
	debounce time.Duration

	// dirs maps watched directories to their namespace.
	dirs map[string]string
	// known holds the plug-in names reported so far, per namespace.
	known   map[string]map[string]bool
	pending map[string]*time.Timer

	discoveries chan Discovery
	errors      chan error

	closed  bool
	closeCh chan struct{}
	loopWg  sync.WaitGroup
	scanWg  sync.WaitGroup
	bufSize int
	suffix  string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDebounce sets the quiet period before a namespace is scanned.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithBufferSize sets the capacity of the discovery and error channels.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// New creates a watcher for namespaces stored as directories under root.
// Namespace "a/b" lives in root/a/b.
func New(r *plugin.Registry, root string, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: r,
		root:     absRoot,
		log:      logging.Nop(),
		debounce: DefaultDebounce,
		dirs:     make(map[string]string),
		known:    make(map[string]map[string]bool),
		pending:  make(map[string]*time.Timer),
		closeCh:  make(chan struct{}),
		bufSize:  16,
		suffix:   r.Loader().Suffix(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("watch")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	w.discoveries = make(chan Discovery, w.bufSize)
	w.errors = make(chan error, w.bufSize)

	w.loopWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching namespace. The plug-ins it holds right now are
// discovered immediately and are not reported as new later.
func (w *Watcher) Watch(namespace string) error {
	dir := filepath.Join(w.root, filepath.FromSlash(namespace))

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if _, ok := w.dirs[dir]; ok {
		w.mu.Unlock()
		return ErrAlreadyWatching
	}
	w.mu.Unlock()

	names, err := w.registry.Names(namespace)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs[dir] = namespace
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	w.known[namespace] = known
	w.log.Debug("watching namespace", "namespace", namespace, "dir", dir, "plugins", len(names))
	return nil
}

// Unwatch stops watching namespace.
func (w *Watcher) Unwatch(namespace string) error {
	dir := filepath.Join(w.root, filepath.FromSlash(namespace))

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.dirs[dir]; !ok {
		return ErrNotWatching
	}
	if t, ok := w.pending[namespace]; ok {
		t.Stop()
		delete(w.pending, namespace)
	}
	delete(w.dirs, dir)
	delete(w.known, namespace)
	return w.fsw.Remove(dir)
}

// Namespaces returns the watched namespaces in sorted order.
func (w *Watcher) Namespaces() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.dirs))
	for _, ns := range w.dirs {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Discoveries returns the channel of newly found plug-ins. It is closed by Close.
func (w *Watcher) Discoveries() <-chan Discovery {
	return w.discoveries
}

// Errors returns the channel of watch and scan errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. Scans in flight finish first.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for ns, t := range w.pending {
		t.Stop()
		delete(w.pending, ns)
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.loopWg.Wait()
	w.scanWg.Wait()

	close(w.discoveries)
	close(w.errors)

	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.loopWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watch error", "error", err)
			w.sendError(err)
		}
	}
}

// handleEvent schedules a scan of the namespace a relevant event belongs to.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !strings.HasSuffix(ev.Name, w.suffix) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	namespace, ok := w.dirs[filepath.Dir(ev.Name)]
	if !ok || w.closed {
		return
	}
	if t, ok := w.pending[namespace]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[namespace] = time.AfterFunc(w.debounce, func() { w.scan(namespace) })
}

// scan imports the namespace and reports names not seen before.
func (w *Watcher) scan(namespace string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, namespace)
	w.scanWg.Add(1)
	w.mu.Unlock()
	defer w.scanWg.Done()

	names, err := w.registry.Names(namespace)
	if err != nil {
		w.log.Warn("namespace scan failed", "namespace", namespace, "error", err)
		w.sendError(err)
		return
	}

	w.mu.Lock()
	known, ok := w.known[namespace]
	if !ok {
		// Unwatched while the scan ran.
		w.mu.Unlock()
		return
	}
	var found []string
	for _, name := range names {
		if !known[name] {
			known[name] = true
			found = append(found, name)
		}
	}
	w.mu.Unlock()

	if len(found) == 0 {
		return
	}
	w.log.Info("discovered plug-ins", "namespace", namespace, "plugins", found)
	select {
	case w.discoveries <- Discovery{Namespace: namespace, Names: found, Time: time.Now()}:
	case <-w.closeCh:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Channel full, drop error
	}
}
