// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"math"
	"strconv"

	"carvel.dev/mtpl/pkg/filepos"
)

// Constant is a literal. Exactly one of Bool, Str, Num is set.
type Constant struct {
	Span filepos.Span
	Bool *bool
	Str  *string // already decoded
	Num  *float64
}

func NewBoolConstant(span filepos.Span, val bool) *Constant {
	return &Constant{Span: span, Bool: &val}
}

func NewStringConstant(span filepos.Span, val string) *Constant {
	return &Constant{Span: span, Str: &val}
}

func NewNumberConstant(span filepos.Span, val float64) *Constant {
	return &Constant{Span: span, Num: &val}
}

// Value returns the literal as a template value. Integral numbers
// are returned as int64, others as float64.
func (n *Constant) Value() interface{} {
	switch {
	case n.Bool != nil:
		return *n.Bool
	case n.Str != nil:
		return *n.Str
	case n.Num != nil:
		f := *n.Num
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	default:
		panic("Expected constant to have a value")
	}
}

func (n *Constant) String() string {
	switch {
	case n.Bool != nil:
		return strconv.FormatBool(*n.Bool)
	case n.Str != nil:
		return `"` + Encode(*n.Str) + `"`
	case n.Num != nil:
		return strconv.FormatFloat(*n.Num, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}

// Reference is a variable lookup. Model references (written with the
// '$' sigil) are looked up in the model; others in the scope chain.
type Reference struct {
	Span       filepos.Span
	IsModelRef bool
	Namespace  string // empty when absent; only meaningful for model references
	Path       []string
}

func (n *Reference) String() string {
	result := ""
	if n.IsModelRef {
		result = "$"
		if len(n.Namespace) > 0 {
			result += n.Namespace + ":"
		}
	}
	for i, seg := range n.Path {
		if i > 0 {
			result += "."
		}
		result += seg
	}
	return result
}

type UnaryOp int

const (
	OpNot UnaryOp = iota
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

type UnaryExpression struct {
	Span filepos.Span
	Op   UnaryOp
	X    Expression
}

type BinaryOp int

const (
	OpEQ BinaryOp = iota
	OpNE
	OpGE
	OpLE
	OpGT
	OpLT
	OpAnd
	OpOr
)

var binaryOpStrings = map[BinaryOp]string{
	OpEQ: "==", OpNE: "!=", OpGE: ">=", OpLE: "<=",
	OpGT: ">", OpLT: "<", OpAnd: "&&", OpOr: "||",
}

func (op BinaryOp) String() string {
	if str, found := binaryOpStrings[op]; found {
		return str
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

type BinaryExpression struct {
	Span  filepos.Span
	Left  Expression
	Op    BinaryOp
	Right Expression
}

// FunctionCall invokes a function of the registry supplied at evaluation.
type FunctionCall struct {
	Span filepos.Span
	Name string
	Args []Expression
}

// ListExpression is a list literal, e.g. [1, 2, 3].
type ListExpression struct {
	Span  filepos.Span
	Items []Expression
}

var _ = []Expression{&Constant{}, &Reference{}, &UnaryExpression{},
	&BinaryExpression{}, &FunctionCall{}, &ListExpression{}}

func (n *Constant) Pos() filepos.Span         { return n.Span }
func (n *Reference) Pos() filepos.Span        { return n.Span }
func (n *UnaryExpression) Pos() filepos.Span  { return n.Span }
func (n *BinaryExpression) Pos() filepos.Span { return n.Span }
func (n *FunctionCall) Pos() filepos.Span     { return n.Span }
func (n *ListExpression) Pos() filepos.Span   { return n.Span }

func (*Constant) node()         {}
func (*Reference) node()        {}
func (*UnaryExpression) node()  {}
func (*BinaryExpression) node() {}
func (*FunctionCall) node()     {}
func (*ListExpression) node()   {}

func (*Constant) expr()         {}
func (*Reference) expr()        {}
func (*UnaryExpression) expr()  {}
func (*BinaryExpression) expr() {}
func (*FunctionCall) expr()     {}
func (*ListExpression) expr()   {}
