// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package funcs provides the functions callable from template
// expressions: Go builtins and functions defined in starlark files.
package funcs

import (
	"context"
	"sort"
)

type Callable interface {
	Invoke(args []interface{}) (interface{}, error)
}

// ContextCallable is a Callable that stops early once ctx is done.
type ContextCallable interface {
	Callable
	InvokeContext(ctx context.Context, args []interface{}) (interface{}, error)
}

// InvokeContext calls c, passing ctx along when c accepts it.
func InvokeContext(ctx context.Context, c Callable, args []interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cc, ok := c.(ContextCallable); ok {
		return cc.InvokeContext(ctx, args)
	}
	return c.Invoke(args)
}

type Registry interface {
	Lookup(name string) (Callable, bool)
}

// Func adapts a Go function to Callable.
type Func func(args []interface{}) (interface{}, error)

func (f Func) Invoke(args []interface{}) (interface{}, error) { return f(args) }

// Map is a Registry backed by a Go map.
type Map map[string]Callable

var _ Registry = Map{}

func (m Map) Lookup(name string) (Callable, bool) {
	c, found := m[name]
	return c, found
}

func (m Map) Names() []string {
	var names []string
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain looks a name up in each registry in order; the first match wins.
func Chain(registries ...Registry) Registry {
	return chain(registries)
}

type chain []Registry

func (c chain) Lookup(name string) (Callable, bool) {
	for _, reg := range c {
		if reg == nil {
			continue
		}
		if callable, found := reg.Lookup(name); found {
			return callable, true
		}
	}
	return nil, false
}

func (c chain) Names() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, reg := range c {
		for _, name := range Names(reg) {
			if _, found := seen[name]; !found {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Names lists functions of registries that can enumerate them.
func Names(reg Registry) []string {
	if lister, ok := reg.(interface{ Names() []string }); ok {
		return lister.Names()
	}
	return nil
}
