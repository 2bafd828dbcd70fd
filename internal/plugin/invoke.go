package plugin

import (
	"fmt"
	"reflect"
)

// Invoker is implemented by callables that are not Go functions, such as
// functions defined in a scripting language. The registry calls Invoke with
// the arguments given to Call, unchanged.
type Invoker interface {
	Invoke(args ...any) (any, error)
}

// Kwargs carries keyword arguments. Pass it as an ordinary argument; Go
// functions receive it as a map, script functions as a table.
type Kwargs map[string]any

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invoke calls fn with args. Go functions are called through reflection;
// a trailing error result becomes the returned error.
func invoke(fn any, args []any) (any, error) {
	if inv, ok := fn.(Invoker); ok {
		return inv.Invoke(args...)
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}
	in, err := callArgs(v.Type(), args)
	if err != nil {
		return nil, err
	}
	return results(v.Call(in))
}

// callArgs converts args to the parameter types of t.
func callArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrArguments, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArguments, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= n-1 {
			pt = t.In(n - 1).Elem()
		} else {
			pt = t.In(i)
		}
		av, err := convertValue(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrArguments, i, err)
		}
		in[i] = av
	}
	return in, nil
}

// convertValue turns v into a value of type t. Besides plain assignment it
// accepts nil for nillable types and converts between numeric kinds.
func convertValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if nillable(t.Kind()) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a valid %s", t)
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		if rv.Type() != t {
			// Assigning to an interface type; keep the dynamic value.
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	case numeric(rv.Kind()) && numeric(t.Kind()):
		return rv.Convert(t), nil
	case rv.Kind() == reflect.Map && t.Kind() == reflect.Map && rv.Type().ConvertibleTo(t):
		// Kwargs to map[string]any and back.
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

// results folds the return values of a reflected call.
func results(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		vals := make([]any, len(out))
		for i, o := range out {
			vals[i] = o.Interface()
		}
		return vals, err
	}
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return true
	}
	return false
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
