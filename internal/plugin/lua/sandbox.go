package lua

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Resolver returns the source of a module that require asked for.
// ok is false when the resolver does not know the module.
type Resolver func(name string) (code string, ok bool, err error)

// Sandbox restricts what plug-in code can reach.
type Sandbox struct {
	L *lua.LState

	resolve Resolver
}

// safeModules are the built-in modules require hands out.
var safeModules = map[string]bool{
	"_G":     true,
	"string": true,
	"table":  true,
	"math":   true,
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	// Remove functions that load code behind the resolver's back
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// installSafeRequire replaces require with a version that only loads
// built-in modules, preloaded Go modules and what the resolver returns.
// package.path and package.cpath are cleared so nothing is read from disk.
func (s *Sandbox) installSafeRequire() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		loaded, _ := L.GetField(pkg, "loaded").(*lua.LTable)
		if loaded != nil {
			if mod := loaded.RawGetString(modName); mod != lua.LNil {
				L.Push(mod)
				return 1
			}
		}

		if safeModules[modName] || s.preloaded(pkg, modName) {
			L.Push(originalRequire)
			L.Push(lua.LString(modName))
			L.Call(1, 1)
			return 1
		}

		if s.resolve != nil && validModuleName(modName) {
			code, ok, err := s.resolve(modName)
			if err != nil {
				L.RaiseError("loading module %q: %v", modName, err)
				return 0
			}
			if ok {
				fn, err := L.Load(strings.NewReader(code), modName)
				if err != nil {
					L.RaiseError("loading module %q: %v", modName, err)
					return 0
				}
				L.Push(fn)
				L.Call(0, 1)
				mod := L.Get(-1)
				L.Pop(1)
				if mod == lua.LNil {
					mod = lua.LTrue
				}
				if loaded != nil {
					loaded.RawSetString(modName, mod)
				}
				L.Push(mod)
				return 1
			}
		}

		// L.RaiseError does a longjmp, so code after it is unreachable.
		L.RaiseError("module %q not found", modName)
		return 0
	}))
}

func (s *Sandbox) preloaded(pkg *lua.LTable, name string) bool {
	preload, ok := s.L.GetField(pkg, "preload").(*lua.LTable)
	if !ok {
		return false
	}
	return preload.RawGetString(name) != lua.LNil
}

// validModuleName rejects names that could escape the plug-in directory.
func validModuleName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\.`)
}
