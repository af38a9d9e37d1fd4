// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"carvel.dev/mtpl/pkg/filepos"
)

// Node is any node of a parsed template.
type Node interface {
	Pos() filepos.Span
	node()
}

// Expression is a Node that produces a value when evaluated.
type Expression interface {
	Node
	expr()
}

// Statement is a Node carrying optional metadata attributes
// (e.g. id, separator) in addition to its behaviour.
type Statement interface {
	Node
	Attributes() map[string]string
	stmt()
}

// Template is the top-level unit and every nested scope body.
type Template struct {
	Span  filepos.Span
	Items []Node
}

// LiteralText is passed through to the output as is.
type LiteralText struct {
	Span filepos.Span
	Text string
}

// AttributeValue holds content destined for a markup attribute. Its
// evaluated content is escaped by the enclosing context with attribute
// rules, never with text rules.
type AttributeValue struct {
	Span  filepos.Span
	Items []Node
}

var _ = []Node{&Template{}, &LiteralText{}, &AttributeValue{}}

func (n *Template) Pos() filepos.Span       { return n.Span }
func (n *LiteralText) Pos() filepos.Span    { return n.Span }
func (n *AttributeValue) Pos() filepos.Span { return n.Span }

func (*Template) node()       {}
func (*LiteralText) node()    {}
func (*AttributeValue) node() {}
