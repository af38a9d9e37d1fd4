// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package funcs

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
)

const maxRangeLen = 100000

// Builtins returns the functions available to every template.
func Builtins() Map {
	return Map{
		"len":         Func(lenFunc),
		"str":         Func(strFunc),
		"upper":       stringFunc("upper", strings.ToUpper),
		"lower":       stringFunc("lower", strings.ToLower),
		"trim":        stringFunc("trim", strings.TrimSpace),
		"join":        Func(joinFunc),
		"default":     Func(defaultFunc),
		"contains":    Func(containsFunc),
		"range":       Func(rangeFunc),
		"version_ge":  Func(versionGEFunc),
		"toml_encode": Func(tomlEncodeFunc),
	}
}

func checkArgs(name string, args []interface{}, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("%s: expected exactly %d argument(s), but got %d", name, min, len(args))
		}
		return fmt.Errorf("%s: expected %d to %d arguments, but got %d", name, min, max, len(args))
	}
	return nil
}

func stringArg(name string, args []interface{}, i int) (string, error) {
	str, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: expected argument %d to be a string, but was %s", name, i+1, model.TypeName(args[i]))
	}
	return str, nil
}

func intArg(name string, args []interface{}, i int) (int64, error) {
	switch typedArg := args[i].(type) {
	case int64:
		return typedArg, nil
	case float64:
		if typedArg == float64(int64(typedArg)) {
			return int64(typedArg), nil
		}
	}
	return 0, fmt.Errorf("%s: expected argument %d to be an int, but was %s", name, i+1, model.TypeName(args[i]))
}

func stringFunc(name string, f func(string) string) Func {
	return func(args []interface{}) (interface{}, error) {
		if err := checkArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		str, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return f(str), nil
	}
}

func lenFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch typedArg := args[0].(type) {
	case string:
		return int64(utf8.RuneCountInString(typedArg)), nil
	case []interface{}:
		return int64(len(typedArg)), nil
	case *orderedmap.Map:
		return int64(typedArg.Len()), nil
	default:
		return nil, fmt.Errorf("len: expected a string, list or map, but was %s", model.TypeName(args[0]))
	}
}

func strFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("str", args, 1, 1); err != nil {
		return nil, err
	}
	str, err := model.ToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("str: %s", err)
	}
	return str, nil
}

func joinFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("join", args, 1, 2); err != nil {
		return nil, err
	}
	list, ok := args[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("join: expected argument 1 to be a list, but was %s", model.TypeName(args[0]))
	}
	sep := ""
	if len(args) == 2 {
		var err error
		sep, err = stringArg("join", args, 1)
		if err != nil {
			return nil, err
		}
	}

	var pieces []string
	for _, item := range list {
		str, err := model.ToString(item)
		if err != nil {
			return nil, fmt.Errorf("join: %s", err)
		}
		pieces = append(pieces, str)
	}
	return strings.Join(pieces, sep), nil
}

func defaultFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("default", args, 2, 2); err != nil {
		return nil, err
	}
	if args[0] == nil || args[0] == "" {
		return args[1], nil
	}
	return args[0], nil
}

func containsFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("contains", args, 2, 2); err != nil {
		return nil, err
	}
	switch typedColl := args[0].(type) {
	case string:
		sub, err := stringArg("contains", args, 1)
		if err != nil {
			return nil, err
		}
		return strings.Contains(typedColl, sub), nil
	case []interface{}:
		for _, item := range typedColl {
			if model.Equal(item, args[1]) {
				return true, nil
			}
		}
		return false, nil
	case *orderedmap.Map:
		key, err := stringArg("contains", args, 1)
		if err != nil {
			return nil, err
		}
		_, found := typedColl.Get(key)
		return found, nil
	default:
		return nil, fmt.Errorf("contains: expected a string, list or map, but was %s", model.TypeName(args[0]))
	}
}

// rangeFunc is range(end) or range(start, end), end exclusive.
func rangeFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("range", args, 1, 2); err != nil {
		return nil, err
	}
	var start, end int64
	var err error
	if len(args) == 1 {
		end, err = intArg("range", args, 0)
	} else {
		start, err = intArg("range", args, 0)
		if err == nil {
			end, err = intArg("range", args, 1)
		}
	}
	if err != nil {
		return nil, err
	}
	if end <= start {
		return []interface{}{}, nil
	}
	// the uint64 difference of end > start cannot overflow
	if n := uint64(end) - uint64(start); n > maxRangeLen {
		return nil, fmt.Errorf("range: expected at most %d elements, but got %d", maxRangeLen, n)
	}

	result := make([]interface{}, 0, end-start)
	for i := start; i < end; i++ {
		result = append(result, i)
	}
	return result, nil
}

func versionGEFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("version_ge", args, 2, 2); err != nil {
		return nil, err
	}
	var versions []*version.Version
	for i := range args {
		str, err := stringArg("version_ge", args, i)
		if err != nil {
			return nil, err
		}
		ver, err := version.NewVersion(str)
		if err != nil {
			return nil, fmt.Errorf("version_ge: parsing version '%s': %s", str, err)
		}
		versions = append(versions, ver)
	}
	return versions[0].GreaterThanOrEqual(versions[1]), nil
}

func tomlEncodeFunc(args []interface{}) (interface{}, error) {
	if err := checkArgs("toml_encode", args, 1, 1); err != nil {
		return nil, err
	}
	if _, ok := args[0].(*orderedmap.Map); !ok {
		return nil, fmt.Errorf("toml_encode: expected a map, but was %s", model.TypeName(args[0]))
	}

	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).Encode(orderedmap.Conversion{Object: args[0]}.AsUnorderedStringMaps())
	if err != nil {
		return nil, fmt.Errorf("toml_encode: %s", err)
	}
	return buf.String(), nil
}
