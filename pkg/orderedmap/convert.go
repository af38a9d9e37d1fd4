// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"fmt"
	"sort"
)

// Conversion translates between *Map based values and plain Go values
// as produced/consumed by decoders (encoding/json, yaml.v3, toml).
type Conversion struct {
	Object interface{}
}

func (c Conversion) AsUnorderedStringMaps() interface{} {
	return c.asUnorderedStringMaps(c.Object)
}

func (c Conversion) asUnorderedStringMaps(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case *Map:
		result := map[string]interface{}{}
		typedObj.Iterate(func(k string, v interface{}) {
			result[k] = c.asUnorderedStringMaps(v)
		})
		return result

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.asUnorderedStringMaps(item)
		}
		return result

	default:
		return typedObj
	}
}

// FromUnorderedMaps converts nested Go maps into *Map. Keys of unordered
// maps are sorted so the result is deterministic. Input is not modified.
func (c Conversion) FromUnorderedMaps() interface{} {
	return c.fromUnorderedMaps(c.Object)
}

func (c Conversion) fromUnorderedMaps(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case map[interface{}]interface{}:
		result := NewMap()
		keys := make([]string, 0, len(typedObj))
		byStr := map[string]interface{}{}
		for k, v := range typedObj {
			strK := fmt.Sprintf("%v", k)
			keys = append(keys, strK)
			byStr[strK] = v
		}
		sort.Strings(keys)
		for _, key := range keys {
			result.Set(key, c.fromUnorderedMaps(byStr[key]))
		}
		return result

	case map[string]interface{}:
		result := NewMap()
		keys := make([]string, 0, len(typedObj))
		for k := range typedObj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			result.Set(key, c.fromUnorderedMaps(typedObj[key]))
		}
		return result

	case *Map:
		panic("Expected map[string]interface{} instead of *orderedmap.Map in fromUnorderedMaps")

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	case []map[string]interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	default:
		return typedObj
	}
}
