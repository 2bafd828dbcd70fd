package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// Function is a Lua function registered as a plug-in function. It
// implements plugin.Invoker.
type Function struct {
	state *State
	fn    *lua.LFunction
	name  string
}

// Name returns the name the function was registered under.
func (f *Function) Name() string {
	return f.name
}

// Invoke calls the function. No result gives nil, one result is returned
// as is and several are returned as []any. Lua errors are returned
// unchanged.
func (f *Function) Invoke(args ...any) (any, error) {
	results, err := f.state.Call(f.fn, args...)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (f *Function) String() string {
	return "lua function " + f.name
}
