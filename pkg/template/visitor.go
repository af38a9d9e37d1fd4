// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
)

// Visitor has one operation per node kind. R is the result type,
// A the argument (environment) threaded through the traversal.
type Visitor[R, A any] interface {
	VisitTemplate(*Template, A) (R, error)
	VisitLiteralText(*LiteralText, A) (R, error)
	VisitAttributeValue(*AttributeValue, A) (R, error)

	VisitConstant(*Constant, A) (R, error)
	VisitReference(*Reference, A) (R, error)
	VisitUnary(*UnaryExpression, A) (R, error)
	VisitBinary(*BinaryExpression, A) (R, error)
	VisitFunctionCall(*FunctionCall, A) (R, error)
	VisitList(*ListExpression, A) (R, error)

	VisitAssign(*AssignStatement, A) (R, error)
	VisitDefine(*DefineStatement, A) (R, error)
	VisitIf(*IfStatement, A) (R, error)
	VisitForeach(*ForeachStatement, A) (R, error)
	VisitInvoke(*InvokeStatement, A) (R, error)
}

// Visit dispatches n to the matching operation of v.
func Visit[R, A any](v Visitor[R, A], n Node, arg A) (R, error) {
	switch typedNode := n.(type) {
	case *Template:
		return v.VisitTemplate(typedNode, arg)
	case *LiteralText:
		return v.VisitLiteralText(typedNode, arg)
	case *AttributeValue:
		return v.VisitAttributeValue(typedNode, arg)
	case *Constant:
		return v.VisitConstant(typedNode, arg)
	case *Reference:
		return v.VisitReference(typedNode, arg)
	case *UnaryExpression:
		return v.VisitUnary(typedNode, arg)
	case *BinaryExpression:
		return v.VisitBinary(typedNode, arg)
	case *FunctionCall:
		return v.VisitFunctionCall(typedNode, arg)
	case *ListExpression:
		return v.VisitList(typedNode, arg)
	case *AssignStatement:
		return v.VisitAssign(typedNode, arg)
	case *DefineStatement:
		return v.VisitDefine(typedNode, arg)
	case *IfStatement:
		return v.VisitIf(typedNode, arg)
	case *ForeachStatement:
		return v.VisitForeach(typedNode, arg)
	case *InvokeStatement:
		return v.VisitInvoke(typedNode, arg)
	default:
		panic(fmt.Sprintf("unknown template node %T", typedNode))
	}
}

// Inspect traverses the tree depth-first in source order calling f for
// each node; children are skipped when f returns false. Nodes wrapped in
// invocation parameters are visited too.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch typedNode := n.(type) {
	case *Template:
		for _, item := range typedNode.Items {
			Inspect(item, f)
		}
	case *AttributeValue:
		for _, item := range typedNode.Items {
			Inspect(item, f)
		}
	case *LiteralText, *Constant, *Reference:
		// leaves
	case *UnaryExpression:
		Inspect(typedNode.X, f)
	case *BinaryExpression:
		Inspect(typedNode.Left, f)
		Inspect(typedNode.Right, f)
	case *FunctionCall:
		for _, arg := range typedNode.Args {
			Inspect(arg, f)
		}
	case *ListExpression:
		for _, item := range typedNode.Items {
			Inspect(item, f)
		}
	case *AssignStatement:
		Inspect(typedNode.X, f)
	case *DefineStatement:
		Inspect(typedNode.X, f)
	case *IfStatement:
		Inspect(typedNode.Cond, f)
		Inspect(typedNode.Then, f)
		if typedNode.Else != nil {
			Inspect(typedNode.Else, f)
		}
	case *ForeachStatement:
		Inspect(typedNode.Collection, f)
		Inspect(typedNode.Body, f)
	case *InvokeStatement:
		inspectParam(typedNode.Params, f)
	default:
		panic(fmt.Sprintf("unknown template node %T", typedNode))
	}
}

func inspectParam(p ParameterValue, f func(Node) bool) {
	switch typedParam := p.(type) {
	case *PrimitiveParam:
		Inspect(typedParam.Node, f)
	case *ListParam:
		for _, item := range typedParam.Items() {
			inspectParam(item, f)
		}
	case *StructuredParam:
		for _, field := range typedParam.Fields() {
			inspectParam(field.Value, f)
		}
	}
}
