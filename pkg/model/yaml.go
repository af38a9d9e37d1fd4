// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"

	"carvel.dev/mtpl/pkg/orderedmap"
	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML document into an ordered map, keeping the
// key order of the source.
func FromYAML(data []byte) (*orderedmap.Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("Unmarshaling YAML data values: %s", err)
	}
	if doc.Kind == 0 {
		return orderedmap.NewMap(), nil
	}
	val, err := fromYAMLNode(&doc)
	if err != nil {
		return nil, err
	}
	return NormalizeMap(val)
}

// FromYAMLValue decodes a single YAML value (e.g. of a flag).
func FromYAMLValue(data string) (interface{}, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromYAMLNode(&doc)
}

func fromYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])

	case yaml.MappingNode:
		result := orderedmap.NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind == yaml.ScalarNode && keyNode.Tag == "!!merge" {
				merged, err := fromYAMLNode(valNode)
				if err != nil {
					return nil, err
				}
				if mergedMap, ok := merged.(*orderedmap.Map); ok {
					result.Merge(mergedMap)
					continue
				}
				return nil, fmt.Errorf("Expected merge key value at line %d to be a map", valNode.Line)
			}
			val, err := fromYAMLNode(valNode)
			if err != nil {
				return nil, err
			}
			result.Set(keyNode.Value, val)
		}
		return result, nil

	case yaml.SequenceNode:
		result := []interface{}{}
		for _, item := range node.Content {
			val, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)

	case yaml.ScalarNode:
		var val interface{}
		if err := node.Decode(&val); err != nil {
			return nil, fmt.Errorf("Decoding value at line %d: %s", node.Line, err)
		}
		return Normalize(val)

	default:
		return nil, fmt.Errorf("Unexpected YAML node kind %d at line %d", node.Kind, node.Line)
	}
}

// ToYAML encodes a value as a YAML document. Ordered maps keep their
// key order.
func ToYAML(val interface{}) ([]byte, error) {
	node, err := toYAMLNode(val)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func toYAMLNode(val interface{}) (*yaml.Node, error) {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		err := typedVal.IterateErr(func(k string, v interface{}) error {
			valNode, err := toYAMLNode(v)
			if err != nil {
				return err
			}
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			node.Content = append(node.Content, keyNode, valNode)
			return nil
		})
		return node, err

	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typedVal {
			itemNode, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil

	default:
		node := &yaml.Node{}
		if err := node.Encode(typedVal); err != nil {
			return nil, fmt.Errorf("Encoding %s value: %s", TypeName(val), err)
		}
		return node, nil
	}
}
