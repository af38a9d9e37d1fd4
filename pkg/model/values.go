// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"encoding"
	"fmt"
	"math"

	"carvel.dev/mtpl/pkg/orderedmap"
)

// Normalize converts decoded data into template values: nil, bool,
// string, int64, float64, []interface{} and *orderedmap.Map. Unordered
// maps get sorted keys; values implementing encoding.TextMarshaler
// (e.g. timestamps) become strings.
func Normalize(val interface{}) (interface{}, error) {
	switch typedVal := val.(type) {
	case nil, bool, string, int64, float64:
		return typedVal, nil
	case int:
		return int64(typedVal), nil
	case int8:
		return int64(typedVal), nil
	case int16:
		return int64(typedVal), nil
	case int32:
		return int64(typedVal), nil
	case uint:
		return uintToInt64(uint64(typedVal))
	case uint8:
		return int64(typedVal), nil
	case uint16:
		return int64(typedVal), nil
	case uint32:
		return int64(typedVal), nil
	case uint64:
		return uintToInt64(typedVal)
	case float32:
		return float64(typedVal), nil

	case *orderedmap.Map:
		result := orderedmap.NewMap()
		err := typedVal.IterateErr(func(k string, v interface{}) error {
			normVal, err := Normalize(v)
			if err != nil {
				return err
			}
			result.Set(k, normVal)
			return nil
		})
		return result, err

	case map[string]interface{}, map[interface{}]interface{}:
		return Normalize(orderedmap.Conversion{Object: typedVal}.FromUnorderedMaps())

	case []interface{}:
		result := make([]interface{}, 0, len(typedVal))
		for _, item := range typedVal {
			normItem, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			result = append(result, normItem)
		}
		return result, nil

	case []map[string]interface{}:
		return Normalize(orderedmap.Conversion{Object: typedVal}.FromUnorderedMaps())

	case []string:
		result := make([]interface{}, 0, len(typedVal))
		for _, item := range typedVal {
			result = append(result, item)
		}
		return result, nil

	case encoding.TextMarshaler:
		text, err := typedVal.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil

	default:
		return nil, fmt.Errorf("Unsupported value type %T", typedVal)
	}
}

// NormalizeMap is Normalize for values that must be maps.
func uintToInt64(val uint64) (interface{}, error) {
	if val > math.MaxInt64 {
		return nil, fmt.Errorf("Expected integer %d to be at most %d", val, int64(math.MaxInt64))
	}
	return int64(val), nil
}

func NormalizeMap(val interface{}) (*orderedmap.Map, error) {
	normVal, err := Normalize(val)
	if err != nil {
		return nil, err
	}
	if normVal == nil {
		return orderedmap.NewMap(), nil
	}
	typedMap, ok := normVal.(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected data values to be a map, but was %s", TypeName(normVal))
	}
	return typedMap, nil
}

// TypeName is the user-facing name of a value's type.
func TypeName(val interface{}) string {
	switch val.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int64:
		return "int"
	case float64:
		return "float"
	case []interface{}:
		return "list"
	case *orderedmap.Map:
		return "map"
	default:
		return fmt.Sprintf("%T", val)
	}
}
