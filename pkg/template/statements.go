// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"carvel.dev/mtpl/pkg/filepos"
)

const (
	// AttrID names a statement for diagnostics
	AttrID = "id"
	// AttrSeparator is written between foreach iterations
	AttrSeparator = "separator"
)

// AssignStatement writes the value of X to the output as text content.
type AssignStatement struct {
	Span  filepos.Span
	Attrs map[string]string
	X     Expression
}

// DefineStatement binds Name in the current scope for later siblings.
type DefineStatement struct {
	Span  filepos.Span
	Attrs map[string]string
	Name  string
	X     Expression
}

// IfStatement evaluates Then or Else (may be nil) depending on Cond.
// An elseif chain is an IfStatement nested as Else.
type IfStatement struct {
	Span  filepos.Span
	Attrs map[string]string
	Cond  Expression
	Then  Node
	Else  Node
}

// ForeachStatement evaluates Body once per element of Collection with
// Var bound to the element. Label is the leading name when Var was
// introduced with 'as'; it names the loop in diagnostics only.
type ForeachStatement struct {
	Span       filepos.Span
	Attrs      map[string]string
	Var        string
	Label      string
	Collection Expression
	Body       Node
}

// LoopName describes the loop variable as written, e.g. "x as i".
func (n *ForeachStatement) LoopName() string {
	if len(n.Label) > 0 {
		return n.Label + " as " + n.Var
	}
	return n.Var
}

// InvokeStatement renders another template identified by Locator
// (in the given Format) with an explicit set of parameters.
type InvokeStatement struct {
	Span    filepos.Span
	Attrs   map[string]string
	Locator string
	Format  string
	Params  *StructuredParam
}

var _ = []Statement{&AssignStatement{}, &DefineStatement{}, &IfStatement{},
	&ForeachStatement{}, &InvokeStatement{}}

func (n *AssignStatement) Pos() filepos.Span  { return n.Span }
func (n *DefineStatement) Pos() filepos.Span  { return n.Span }
func (n *IfStatement) Pos() filepos.Span      { return n.Span }
func (n *ForeachStatement) Pos() filepos.Span { return n.Span }
func (n *InvokeStatement) Pos() filepos.Span  { return n.Span }

func (n *AssignStatement) Attributes() map[string]string  { return n.Attrs }
func (n *DefineStatement) Attributes() map[string]string  { return n.Attrs }
func (n *IfStatement) Attributes() map[string]string      { return n.Attrs }
func (n *ForeachStatement) Attributes() map[string]string { return n.Attrs }
func (n *InvokeStatement) Attributes() map[string]string  { return n.Attrs }

func (*AssignStatement) node()  {}
func (*DefineStatement) node()  {}
func (*IfStatement) node()      {}
func (*ForeachStatement) node() {}
func (*InvokeStatement) node()  {}

func (*AssignStatement) stmt()  {}
func (*DefineStatement) stmt()  {}
func (*IfStatement) stmt()      {}
func (*ForeachStatement) stmt() {}
func (*InvokeStatement) stmt()  {}

// Attr returns a statement attribute, or "" when absent.
func Attr(s Statement, name string) string {
	return s.Attributes()[name]
}
