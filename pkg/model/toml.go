// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"strings"

	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/BurntSushi/toml"
)

// FromTOML decodes a TOML document into an ordered map. Keys keep the
// order in which they appear in the document.
func FromTOML(data []byte) (*orderedmap.Map, error) {
	var raw map[string]interface{}
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("Unmarshaling TOML data values: %s", err)
	}

	root, err := NormalizeMap(raw)
	if err != nil {
		return nil, err
	}

	order := map[string][]string{}
	seen := map[string]bool{}
	for _, key := range meta.Keys() {
		parent := strings.Join(key[:len(key)-1], "\x00")
		full := strings.Join(key, "\x00")
		if !seen[full] {
			seen[full] = true
			order[parent] = append(order[parent], key[len(key)-1])
		}
	}

	return reorder(root, "", order).(*orderedmap.Map), nil
}

// reorder rebuilds maps so that keys listed in order (by parent path)
// come first in that order.
func reorder(val interface{}, path string, order map[string][]string) interface{} {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		childPath := func(k string) string {
			if len(path) == 0 {
				return k
			}
			return path + "\x00" + k
		}
		result := orderedmap.NewMap()
		for _, k := range order[path] {
			if v, found := typedVal.Get(k); found {
				result.Set(k, reorder(v, childPath(k), order))
			}
		}
		typedVal.Iterate(func(k string, v interface{}) {
			if _, found := result.Get(k); !found {
				result.Set(k, reorder(v, childPath(k), order))
			}
		})
		return result

	case []interface{}:
		result := make([]interface{}, 0, len(typedVal))
		for _, item := range typedVal {
			result = append(result, reorder(item, path, order))
		}
		return result

	default:
		return val
	}
}
