package lua

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dshills/plugs/internal/logging"
	"github.com/dshills/plugs/internal/plugin"
	lua "github.com/yuin/gopher-lua"
)

// Suffix marks Lua plug-in files.
const Suffix = ".lua"

// ModuleName is the name plug-in files require to register functions.
const ModuleName = "plugs"

// Loader serves Lua plug-ins from a file system. A namespace is a
// directory, and every <name>.lua file in it is a plug-in named <name>.
//
// Each file runs in its own Lua state:
//
//	-- Greetings in several languages.
//	local plugs = require("plugs")
//
//	plugs.register("hello", function(name)
//	  return "Hello " .. name
//	end, { doc = "Say hello." })
//
// The leading comment block is the module documentation.
type Loader struct {
	fsys    fs.FS
	log     *logging.Logger
	timeout time.Duration

	mu     sync.Mutex
	states []*State
	closed bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithTimeout bounds the execution of plug-in code. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(ld *Loader) {
		ld.timeout = d
	}
}

// NewLoader creates a loader reading plug-in files from fsys.
func NewLoader(fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys:    fsys,
		log:     logging.Nop(),
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithComponent("lua")
	return l
}

// Suffix returns ".lua".
func (l *Loader) Suffix() string { return Suffix }

// Members lists the files of the namespace directory, sorted by name.
func (l *Loader) Members(namespace string) ([]string, error) {
	dir, err := l.dir(namespace)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	members := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		members = append(members, entry.Name())
	}
	return members, nil
}

// Load runs <namespace>/<member>.lua. Functions it registers through the
// plugs module go to r.
func (l *Loader) Load(namespace, member string, r *plugin.Registrar) error {
	dir, err := l.dir(namespace)
	if err != nil {
		return err
	}
	if !validModuleName(member) {
		return &plugin.NotFoundError{Kind: plugin.TargetPlugin, Namespace: namespace, Member: member}
	}

	file := path.Join(dir, member+Suffix)
	src, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &plugin.NotFoundError{Kind: plugin.TargetPlugin, Namespace: namespace, Member: member, Err: err}
		}
		return fmt.Errorf("reading %s: %w", file, err)
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLoaderClosed
	}

	state, err := NewState(
		WithExecutionTimeout(l.timeout),
		WithResolver(l.resolver(dir)),
	)
	if err != nil {
		return err
	}
	state.Preload(ModuleName, registerModule(state, r))

	r.SetModuleDoc(ModuleDoc(string(src)))
	err = state.DoChunk(file, string(src))

	// Functions registered before a failure stay callable, as they would
	// after a module that fails half way through its top-level code.
	if r.Registered() == 0 {
		state.Close()
	} else if !l.keep(state) {
		state.Close()
	}

	if err != nil {
		return &ScriptError{Path: file, Err: err}
	}
	l.log.Debug("executed plug-in file", "file", file, "registered", r.Registered())
	return nil
}

// Close releases the Lua states of all loaded plug-ins. Functions they
// registered return ErrStateClosed afterwards.
func (l *Loader) Close() error {
	l.mu.Lock()
	states := l.states
	l.states = nil
	l.closed = true
	l.mu.Unlock()

	var errs []error
	for _, s := range states {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) keep(s *State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.states = append(l.states, s)
	return true
}

// dir maps a namespace to a directory of the file system.
func (l *Loader) dir(namespace string) (string, error) {
	dir := namespace
	if dir == "" {
		dir = "."
	}
	if !fs.ValidPath(dir) {
		return "", &plugin.NotFoundError{Kind: plugin.TargetPackage, Namespace: namespace}
	}
	info, err := fs.Stat(l.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &plugin.NotFoundError{Kind: plugin.TargetPackage, Namespace: namespace, Err: err}
		}
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", &plugin.NotFoundError{Kind: plugin.TargetPackage, Namespace: namespace}
	}
	return dir, nil
}

// resolver makes the files of dir available to require by name, private
// files included.
func (l *Loader) resolver(dir string) Resolver {
	return func(name string) (string, bool, error) {
		src, err := fs.ReadFile(l.fsys, path.Join(dir, name+Suffix))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, nil
			}
			return "", false, err
		}
		return string(src), true, nil
	}
}

// registerModule builds the plugs module bound to the member being loaded.
func registerModule(state *State, r *plugin.Registrar) lua.LGFunction {
	return func(L *lua.LState) int {
		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"register": func(L *lua.LState) int {
				name := L.CheckString(1)
				fn := L.CheckFunction(2)

				opts := []plugin.RegisterOption{plugin.Name(name)}
				switch o := L.Get(3).(type) {
				case *lua.LTable:
					opts = append(opts, tableOptions(state.Bridge(), o)...)
				case *lua.LNilType:
				default:
					L.ArgError(3, "options table expected")
					return 0
				}

				f := &Function{state: state, fn: fn, name: name}
				if err := register(r, f, opts); err != nil {
					L.RaiseError("%v", err)
					return 0
				}
				L.Push(fn)
				return 1
			},
		})
		L.SetField(mod, "namespace", lua.LString(r.Namespace()))
		L.SetField(mod, "plugin", lua.LString(r.Plugin()))
		L.Push(mod)
		return 1
	}
}

func tableOptions(b *Bridge, t *lua.LTable) []plugin.RegisterOption {
	var opts []plugin.RegisterOption
	if n, ok := b.GetTableInt(t, "sort_value"); ok {
		opts = append(opts, plugin.SortValue(n))
	}
	if s, ok := b.GetTableString(t, "label"); ok {
		opts = append(opts, plugin.Label(s))
	}
	if s, ok := b.GetTableString(t, "doc"); ok {
		opts = append(opts, plugin.Doc(s))
	}
	return opts
}

// register turns a registration panic into an error raised in Lua.
func register(r *plugin.Registrar, fn any, opts []plugin.RegisterOption) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	r.Register(fn, opts...)
	return nil
}

// ModuleDoc returns the leading comment block of Lua source, the
// documentation of the plug-in file. Both line comments and a leading
// long comment are recognized.
func ModuleDoc(src string) string {
	src = strings.TrimLeft(src, " \t\r\n")
	if strings.HasPrefix(src, "#!") {
		if i := strings.IndexByte(src, '\n'); i >= 0 {
			src = strings.TrimLeft(src[i+1:], " \t\r\n")
		}
	}

	if strings.HasPrefix(src, "--[[") {
		body := src[len("--[["):]
		if end := strings.Index(body, "]]"); end >= 0 {
			return strings.TrimSpace(body[:end])
		}
		return ""
	}

	var lines []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "--") {
			break
		}
		line = strings.TrimLeft(line, "-")
		lines = append(lines, strings.TrimPrefix(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
