// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Pretty returns a line-oriented representation of the tree,
// one node per line, children indented by two spaces.
func Pretty(n Node) string {
	var buf bytes.Buffer
	ppNode(&buf, 0, n)
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	ind := strings.Repeat(" ", indent)
	pos := n.Pos().AsCompactString()

	switch typedNode := n.(type) {
	case *Template:
		fmt.Fprintf(buf, "%sTemplate @%s\n", ind, pos)
		for _, item := range typedNode.Items {
			ppNode(buf, indent+2, item)
		}
	case *LiteralText:
		fmt.Fprintf(buf, "%sText(%q)\n", ind, typedNode.Text)
	case *AttributeValue:
		fmt.Fprintf(buf, "%sAttributeValue @%s\n", ind, pos)
		for _, item := range typedNode.Items {
			ppNode(buf, indent+2, item)
		}
	case *AssignStatement:
		fmt.Fprintf(buf, "%sAssign%s(%s) @%s\n", ind, ppAttrs(typedNode.Attrs), ExprString(typedNode.X), pos)
	case *DefineStatement:
		fmt.Fprintf(buf, "%sDefine%s(%s = %s) @%s\n", ind, ppAttrs(typedNode.Attrs), typedNode.Name, ExprString(typedNode.X), pos)
	case *IfStatement:
		fmt.Fprintf(buf, "%sIf%s(%s) @%s\n", ind, ppAttrs(typedNode.Attrs), ExprString(typedNode.Cond), pos)
		ppNode(buf, indent+2, typedNode.Then)
		if typedNode.Else != nil {
			fmt.Fprintf(buf, "%sElse\n", ind)
			ppNode(buf, indent+2, typedNode.Else)
		}
	case *ForeachStatement:
		fmt.Fprintf(buf, "%sForeach%s(%s in %s) @%s\n", ind, ppAttrs(typedNode.Attrs), typedNode.LoopName(), ExprString(typedNode.Collection), pos)
		ppNode(buf, indent+2, typedNode.Body)
	case *InvokeStatement:
		fmt.Fprintf(buf, "%sInvoke%s(%q #%s) @%s\n", ind, ppAttrs(typedNode.Attrs), typedNode.Locator, typedNode.Format, pos)
		ppParam(buf, indent+2, "", typedNode.Params)
	case Expression:
		fmt.Fprintf(buf, "%sExpr(%s) @%s\n", ind, ExprString(typedNode), pos)
	default:
		panic(fmt.Sprintf("unknown template node %T", typedNode))
	}
}

func ppParam(buf *bytes.Buffer, indent int, name string, p ParameterValue) {
	ind := strings.Repeat(" ", indent)
	if len(name) > 0 {
		name += ": "
	}
	switch typedParam := p.(type) {
	case *PrimitiveParam:
		if expr, ok := typedParam.Node.(Expression); ok {
			fmt.Fprintf(buf, "%s%s%s\n", ind, name, ExprString(expr))
			return
		}
		fmt.Fprintf(buf, "%s%s<node>\n", ind, name)
		ppNode(buf, indent+2, typedParam.Node)
	case *ListParam:
		fmt.Fprintf(buf, "%s%s[\n", ind, name)
		for _, item := range typedParam.Items() {
			ppParam(buf, indent+2, "", item)
		}
		fmt.Fprintf(buf, "%s]\n", ind)
	case *StructuredParam:
		fmt.Fprintf(buf, "%s%s{\n", ind, name)
		for _, field := range typedParam.Fields() {
			ppParam(buf, indent+2, field.Name, field.Value)
		}
		fmt.Fprintf(buf, "%s}\n", ind)
	}
}

func ppAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	var keys []string
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pieces []string
	for _, k := range keys {
		pieces = append(pieces, fmt.Sprintf("%s=%q", k, attrs[k]))
	}
	return "[" + strings.Join(pieces, " ") + "]"
}

// ExprString renders an expression back to (normalized) source form.
func ExprString(e Expression) string {
	switch typedExpr := e.(type) {
	case *Constant:
		return typedExpr.String()
	case *Reference:
		return typedExpr.String()
	case *UnaryExpression:
		return typedExpr.Op.String() + ExprString(typedExpr.X)
	case *BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", ExprString(typedExpr.Left), typedExpr.Op, ExprString(typedExpr.Right))
	case *FunctionCall:
		var args []string
		for _, arg := range typedExpr.Args {
			args = append(args, ExprString(arg))
		}
		return typedExpr.Name + "(" + strings.Join(args, ", ") + ")"
	case *ListExpression:
		var items []string
		for _, item := range typedExpr.Items {
			items = append(items, ExprString(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		panic(fmt.Sprintf("unknown template expression %T", typedExpr))
	}
}
