// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/resolver"
)

// frame holds the bindings of one evaluation of one resolved tree.
// Each binding of the tree owns a slot; nested scopes use distinct
// slots so leaving a scope leaves outer bindings untouched.
type frame struct {
	tree  *resolver.ResolvedTree
	slots []interface{}
	bound []bool

	locator string
	depth   int
	model   model.Model
}

func newFrame(tree *resolver.ResolvedTree, locator string, depth int, m model.Model) *frame {
	return &frame{
		tree:    tree,
		slots:   make([]interface{}, tree.NumSlots),
		bound:   make([]bool, tree.NumSlots),
		locator: locator,
		depth:   depth,
		model:   m,
	}
}

func (f *frame) set(slot int, val interface{}) {
	f.slots[slot] = val
	f.bound[slot] = true
}

func (f *frame) get(slot int) (interface{}, bool) {
	return f.slots[slot], f.bound[slot]
}

// unset clears slots, e.g. of a loop body between iterations.
func (f *frame) unset(slots []int) {
	for _, slot := range slots {
		f.slots[slot] = nil
		f.bound[slot] = false
	}
}

// scope is the evaluation argument threaded through the visitor: the
// current frame plus the output the current node writes to.
type scope struct {
	frame  *frame
	out    Sink
	format markup.Format
}

func (s *scope) withOut(out Sink) *scope {
	return &scope{frame: s.frame, out: out, format: s.format}
}
