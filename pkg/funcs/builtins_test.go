// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package funcs_test

import (
	"math"
	"testing"

	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, reg funcs.Registry, name string, args ...interface{}) (interface{}, error) {
	callable, found := reg.Lookup(name)
	require.True(t, found, "function %s", name)
	return callable.Invoke(args)
}

func TestBuiltins(t *testing.T) {
	reg := funcs.Builtins()
	m := orderedmap.NewMapWithItems([]orderedmap.MapItem{{Key: "a", Value: int64(1)}, {Key: "b", Value: "x"}})

	cases := []struct {
		name     string
		args     []interface{}
		expected interface{}
	}{
		{"len", []interface{}{"héllo"}, int64(5)},
		{"len", []interface{}{[]interface{}{1, 2}}, int64(2)},
		{"len", []interface{}{m}, int64(2)},
		{"str", []interface{}{int64(42)}, "42"},
		{"str", []interface{}{nil}, ""},
		{"upper", []interface{}{"abc"}, "ABC"},
		{"lower", []interface{}{"ABC"}, "abc"},
		{"trim", []interface{}{"  a b \n"}, "a b"},
		{"join", []interface{}{[]interface{}{"a", int64(1), true}, ", "}, "a, 1, true"},
		{"join", []interface{}{[]interface{}{"a", "b"}}, "ab"},
		{"default", []interface{}{nil, "d"}, "d"},
		{"default", []interface{}{"", "d"}, "d"},
		{"default", []interface{}{false, "d"}, false},
		{"contains", []interface{}{"haystack", "st"}, true},
		{"contains", []interface{}{[]interface{}{int64(1), int64(2)}, 2.0}, true},
		{"contains", []interface{}{m, "c"}, false},
		{"range", []interface{}{int64(3)}, []interface{}{int64(0), int64(1), int64(2)}},
		{"range", []interface{}{int64(2), int64(4)}, []interface{}{int64(2), int64(3)}},
		{"range", []interface{}{int64(0)}, []interface{}{}},
		{"range", []interface{}{int64(5), int64(2)}, []interface{}{}},
		{"version_ge", []interface{}{"1.10.0", "1.9.3"}, true},
		{"version_ge", []interface{}{"0.9", "1.0.0-rc1"}, false},
		{"toml_encode", []interface{}{m}, "a = 1\nb = \"x\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := call(t, reg, tc.name, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	reg := funcs.Builtins()

	cases := []struct {
		name string
		args []interface{}
		err  string
	}{
		{"len", []interface{}{int64(1)}, "len: expected a string, list or map, but was int"},
		{"len", nil, "len: expected exactly 1 argument(s), but got 0"},
		{"upper", []interface{}{true}, "upper: expected argument 1 to be a string, but was bool"},
		{"join", []interface{}{"a"}, "join: expected argument 1 to be a list, but was string"},
		{"join", []interface{}{"a", "b", "c"}, "join: expected 1 to 2 arguments, but got 3"},
		{"str", []interface{}{orderedmap.NewMap()}, "str: Expected value to be renderable as text, but was map"},
		{"range", []interface{}{1.5}, "range: expected argument 1 to be an int, but was float"},
		{"range", []interface{}{int64(100001)}, "range: expected at most 100000 elements, but got 100001"},
		{"range", []interface{}{int64(math.MinInt64), int64(100)}, "range: expected at most 100000 elements, but got 9223372036854775908"},
		{"range", []interface{}{int64(-1), int64(math.MaxInt64)}, "range: expected at most 100000 elements, but got 9223372036854775808"},
		{"version_ge", []interface{}{"x.y", "1"}, "version_ge: parsing version 'x.y': Malformed version: x.y"},
		{"toml_encode", []interface{}{"a"}, "toml_encode: expected a map, but was string"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := call(t, reg, tc.name, tc.args...)
			require.EqualError(t, err, tc.err)
		})
	}
}

func TestChain(t *testing.T) {
	override := funcs.Map{
		"upper": funcs.Func(func([]interface{}) (interface{}, error) { return "overridden", nil }),
	}
	reg := funcs.Chain(override, nil, funcs.Builtins())

	result, err := call(t, reg, "upper", "a")
	require.NoError(t, err)
	assert.Equal(t, "overridden", result)

	result, err = call(t, reg, "lower", "A")
	require.NoError(t, err)
	assert.Equal(t, "a", result)

	_, found := reg.Lookup("missing")
	assert.False(t, found)

	names := funcs.Names(reg)
	assert.Equal(t, funcs.Builtins().Names(), names)
	assert.Nil(t, funcs.Names(nil))
}
