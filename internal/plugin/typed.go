package plugin

import (
	"fmt"
	"reflect"
)

// GetAs returns the selected function as type F, typically a func type:
//
//	greet, err := plugin.GetAs[func(string) string](r, "example.com/app/plugins", "greet", plugin.Selector{})
func GetAs[F any](r *Registry, namespace, plugin string, sel Selector) (F, error) {
	var zero F
	fn, err := r.Get(namespace, plugin, sel)
	if err != nil {
		return zero, err
	}
	typed, ok := fn.(F)
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s is %T, not %T", ErrResultType, namespace, plugin, fn, zero)
	}
	return typed, nil
}

// CallAs calls the selected function and returns its result as type T.
// Numeric results are converted between numeric types, so a Lua number
// can be read as an int.
func CallAs[T any](r *Registry, namespace, plugin string, sel Selector, args ...any) (T, error) {
	var zero T
	res, err := r.Call(namespace, plugin, sel, args...)
	if err != nil {
		return zero, err
	}
	return as[T](res)
}

func as[T any](v any) (T, error) {
	var zero T
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if v == nil {
		if nillable(t.Kind()) {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: nil is not a valid %s", ErrResultType, t)
	}
	cv, err := convertValue(v, t)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrResultType, err)
	}
	return cv.Interface().(T), nil
}
