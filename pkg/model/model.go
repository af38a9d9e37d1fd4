// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package model supplies values for '$' references of templates.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carvel.dev/mtpl/pkg/orderedmap"
)

// Model resolves model references. Namespace is empty for '$name'
// references.
type Model interface {
	ResolvePath(namespace string, path []string) (interface{}, error)
}

var ErrNotFound = errors.New("not found")

// PathError reports the first segment of a path that could not be
// resolved. Missing is its index; 0 means the variable itself is absent.
type PathError struct {
	Namespace string
	Path      []string
	Missing   int
}

func (e *PathError) Error() string {
	if e.Missing >= len(e.Path) {
		return fmt.Sprintf("Undefined model value '%s'", RefString(e.Namespace, e.Path))
	}
	ref := RefString(e.Namespace, e.Path[:e.Missing+1])
	if e.Missing == 0 {
		return fmt.Sprintf("Undefined model value '%s'", ref)
	}
	return fmt.Sprintf("Undefined member '%s' of '%s'", e.Path[e.Missing], RefString(e.Namespace, e.Path[:e.Missing]))
}

func (e *PathError) Unwrap() error { return ErrNotFound }

// RefString renders a model reference the way it is written in templates.
func RefString(namespace string, path []string) string {
	if len(namespace) > 0 {
		return "$" + namespace + ":" + strings.Join(path, ".")
	}
	return "$" + strings.Join(path, ".")
}

// Member returns the named member of a value: a key of a map or an
// index of a list.
func Member(val interface{}, name string) (interface{}, bool) {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		return typedVal.Get(name)
	case []interface{}:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= len(typedVal) {
			return nil, false
		}
		return typedVal[idx], true
	default:
		return nil, false
	}
}

// Walk resolves path members below val, starting at path[from].
// Errors are *PathError with the given namespace.
func Walk(val interface{}, namespace string, path []string, from int) (interface{}, error) {
	for i := from; i < len(path); i++ {
		next, found := Member(val, path[i])
		if !found {
			return nil, &PathError{Namespace: namespace, Path: path, Missing: i}
		}
		val = next
	}
	return val, nil
}

// Data is a Model backed by ordered maps: a root map for '$name' and
// one map per namespace for '$ns:name'.
type Data struct {
	root       *orderedmap.Map
	namespaces map[string]*orderedmap.Map
}

var _ Model = &Data{}

func NewData() *Data {
	return &Data{root: orderedmap.NewMap(), namespaces: map[string]*orderedmap.Map{}}
}

// NewDataFromMap wraps root values without copying them.
func NewDataFromMap(root *orderedmap.Map) *Data {
	data := NewData()
	if root != nil {
		data.root = root
	}
	return data
}

func (d *Data) values(namespace string, create bool) *orderedmap.Map {
	if len(namespace) == 0 {
		return d.root
	}
	vals, found := d.namespaces[namespace]
	if !found && create {
		vals = orderedmap.NewMap()
		d.namespaces[namespace] = vals
	}
	return vals
}

// Merge merges vals into the namespace (nested maps are merged, other
// values replaced).
func (d *Data) Merge(namespace string, vals *orderedmap.Map) {
	d.values(namespace, true).Merge(vals)
}

// Set sets a value at a dotted path, creating intermediate maps.
func (d *Data) Set(namespace string, path []string, val interface{}) error {
	if len(path) == 0 {
		return fmt.Errorf("Expected non-empty key")
	}
	currMap := d.values(namespace, true)
	for _, keyPiece := range path[:len(path)-1] {
		subMap, found := currMap.Get(keyPiece)
		if found {
			typedSubMap, ok := subMap.(*orderedmap.Map)
			if !ok {
				return fmt.Errorf("Expected key '%s' to not conflict with other data values at piece '%s'",
					strings.Join(path, "."), keyPiece)
			}
			currMap = typedSubMap
		} else {
			newCurrMap := orderedmap.NewMap()
			currMap.Set(keyPiece, newCurrMap)
			currMap = newCurrMap
		}
	}
	currMap.Set(path[len(path)-1], val)
	return nil
}

// Root returns the values of the default namespace.
func (d *Data) Root() *orderedmap.Map { return d.root }

// Namespaces returns known namespace names in no particular order.
func (d *Data) Namespaces() []string {
	var names []string
	for name := range d.namespaces {
		names = append(names, name)
	}
	return names
}

func (d *Data) ResolvePath(namespace string, path []string) (interface{}, error) {
	vals := d.values(namespace, false)
	if vals == nil {
		return nil, &PathError{Namespace: namespace, Path: path, Missing: 0}
	}
	return Walk(vals, namespace, path, 0)
}

// Overlay layers top values over a base model for the default
// namespace: '$name' resolves in top first, then in base. Namespaced
// references always go to base.
func Overlay(top *orderedmap.Map, base Model) Model {
	return overlay{top: top, base: base}
}

type overlay struct {
	top  *orderedmap.Map
	base Model
}

func (o overlay) ResolvePath(namespace string, path []string) (interface{}, error) {
	if len(namespace) == 0 && len(path) > 0 {
		if val, found := o.top.Get(path[0]); found {
			return Walk(val, namespace, path, 1)
		}
	}
	if o.base == nil {
		return nil, &PathError{Namespace: namespace, Path: path, Missing: 0}
	}
	return o.base.ResolvePath(namespace, path)
}
