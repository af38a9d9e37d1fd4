// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package funcs

import (
	"fmt"

	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
)

// GoValue converts template values into starlark values.
type GoValue struct {
	val interface{}
}

func NewGoValue(val interface{}) GoValue {
	return GoValue{val}
}

func (e GoValue) AsStarlarkValue() (starlark.Value, error) {
	return e.asStarlarkValue(e.val)
}

func (e GoValue) asStarlarkValue(val interface{}) (starlark.Value, error) {
	switch typedVal := val.(type) {
	case nil:
		return starlark.None, nil

	case bool:
		return starlark.Bool(typedVal), nil

	case string:
		return starlark.String(typedVal), nil

	case int64:
		return starlark.MakeInt64(typedVal), nil

	case float64:
		return starlark.Float(typedVal), nil

	case *orderedmap.Map:
		result := starlark.NewDict(typedVal.Len())
		err := typedVal.IterateErr(func(k string, v interface{}) error {
			starlarkV, err := e.asStarlarkValue(v)
			if err != nil {
				return err
			}
			return result.SetKey(starlark.String(k), starlarkV)
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	case []interface{}:
		var items []starlark.Value
		for _, item := range typedVal {
			starlarkItem, err := e.asStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, starlarkItem)
		}
		return starlark.NewList(items), nil

	default:
		return nil, fmt.Errorf("Unknown type %T for conversion to starlark value", val)
	}
}

// StarlarkValue converts starlark values into template values.
type StarlarkValue struct {
	val starlark.Value
}

func NewStarlarkValue(val starlark.Value) StarlarkValue {
	return StarlarkValue{val}
}

func (e StarlarkValue) AsGoValue() (interface{}, error) {
	return e.asInterface(e.val)
}

func (e StarlarkValue) asInterface(val starlark.Value) (interface{}, error) {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(typedVal), nil

	case starlark.String:
		return string(typedVal), nil

	case starlark.Int:
		i, ok := typedVal.Int64()
		if !ok {
			return nil, fmt.Errorf("Integer %s is out of range", typedVal.String())
		}
		return i, nil

	case starlark.Float:
		return float64(typedVal), nil

	case *starlark.Dict:
		result := orderedmap.NewMap()
		for _, item := range typedVal.Items() {
			key, ok := item.Index(0).(starlark.String)
			if !ok {
				return nil, fmt.Errorf("Expected dict key to be a string, but was %s", item.Index(0).Type())
			}
			v, err := e.asInterface(item.Index(1))
			if err != nil {
				return nil, err
			}
			result.Set(string(key), v)
		}
		return result, nil

	case *starlarkstruct.Struct:
		// AttrNames is sorted; struct fields have no declaration order
		result := orderedmap.NewMap()
		for _, key := range typedVal.AttrNames() {
			attr, err := typedVal.Attr(key)
			if err != nil {
				return nil, err
			}
			v, err := e.asInterface(attr)
			if err != nil {
				return nil, err
			}
			result.Set(key, v)
		}
		return result, nil

	case starlark.Iterable:
		return e.iterableAsInterface(typedVal)

	default:
		return nil, fmt.Errorf("Unknown type %s for conversion to template value", val.Type())
	}
}

func (e StarlarkValue) iterableAsInterface(iterable starlark.Iterable) (interface{}, error) {
	iter := iterable.Iterate()
	defer iter.Done()

	result := []interface{}{}
	var x starlark.Value
	for iter.Next(&x) {
		v, err := e.asInterface(x)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// starlarkBuiltin exposes a template function to starlark code.
func starlarkBuiltin(name string, callable Callable) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, f *starlark.Builtin,
		args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", f.Name())
		}

		var goArgs []interface{}
		for _, arg := range args {
			goArg, err := NewStarlarkValue(arg).AsGoValue()
			if err != nil {
				return nil, fmt.Errorf("%s: %s", f.Name(), err)
			}
			goArgs = append(goArgs, goArg)
		}

		result, err := InvokeContext(threadContext(thread), callable, goArgs)
		if err != nil {
			return nil, err
		}
		return NewGoValue(result).AsStarlarkValue()
	})
}

