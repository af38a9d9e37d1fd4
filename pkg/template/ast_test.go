// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"testing"

	. "carvel.dev/mtpl/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListParamRejectsNestedLists(t *testing.T) {
	inner, err := NewListParam(Pos0(), []ParameterValue{NewPrimitiveParam(NewNumberConstant(Pos0(), 1))})
	require.NoError(t, err)

	_, err = NewListParam(Pos0(), []ParameterValue{inner})
	require.EqualError(t, err, "list parameter item 0: lists of lists are not allowed")

	structured, err := NewStructuredParam(Pos0(), []ParamField{{Name: "xs", Value: inner}})
	require.NoError(t, err)

	_, err = NewListParam(Pos0(), []ParameterValue{structured})
	require.NoError(t, err)
}

func TestStructuredParamRejectsDuplicates(t *testing.T) {
	one := NewPrimitiveParam(NewNumberConstant(Pos0(), 1))
	_, err := NewStructuredParam(Pos0(), []ParamField{{Name: "a", Value: one}, {Name: "a", Value: one}})
	require.EqualError(t, err, "duplicate parameter 'a'")
}

func TestConstantValue(t *testing.T) {
	assert.Equal(t, int64(3), NewNumberConstant(Pos0(), 3).Value())
	assert.Equal(t, 2.5, NewNumberConstant(Pos0(), 2.5).Value())
	assert.Equal(t, true, NewBoolConstant(Pos0(), true).Value())
	assert.Equal(t, "s", NewStringConstant(Pos0(), "s").Value())
}

type countingVisitor struct {
	kinds []string
}

func (v *countingVisitor) record(kind string) (int, error) {
	v.kinds = append(v.kinds, kind)
	return len(v.kinds), nil
}

func (v *countingVisitor) VisitTemplate(n *Template, _ struct{}) (int, error) { return v.record("template") }
func (v *countingVisitor) VisitLiteralText(n *LiteralText, _ struct{}) (int, error) {
	return v.record("text")
}
func (v *countingVisitor) VisitAttributeValue(n *AttributeValue, _ struct{}) (int, error) {
	return v.record("attr")
}
func (v *countingVisitor) VisitConstant(n *Constant, _ struct{}) (int, error) { return v.record("const") }
func (v *countingVisitor) VisitReference(n *Reference, _ struct{}) (int, error) {
	return v.record("ref")
}
func (v *countingVisitor) VisitUnary(n *UnaryExpression, _ struct{}) (int, error) {
	return v.record("unary")
}
func (v *countingVisitor) VisitBinary(n *BinaryExpression, _ struct{}) (int, error) {
	return v.record("binary")
}
func (v *countingVisitor) VisitFunctionCall(n *FunctionCall, _ struct{}) (int, error) {
	return v.record("call")
}
func (v *countingVisitor) VisitList(n *ListExpression, _ struct{}) (int, error) { return v.record("list") }
func (v *countingVisitor) VisitAssign(n *AssignStatement, _ struct{}) (int, error) {
	return v.record("assign")
}
func (v *countingVisitor) VisitDefine(n *DefineStatement, _ struct{}) (int, error) {
	return v.record("define")
}
func (v *countingVisitor) VisitIf(n *IfStatement, _ struct{}) (int, error) { return v.record("if") }
func (v *countingVisitor) VisitForeach(n *ForeachStatement, _ struct{}) (int, error) {
	return v.record("foreach")
}
func (v *countingVisitor) VisitInvoke(n *InvokeStatement, _ struct{}) (int, error) {
	return v.record("invoke")
}

func TestVisitDispatchesByKind(t *testing.T) {
	v := &countingVisitor{}
	nodes := []Node{
		&Template{}, &LiteralText{}, &AttributeValue{}, NewBoolConstant(Pos0(), true),
		&Reference{Path: []string{"a"}}, &UnaryExpression{}, &BinaryExpression{}, &FunctionCall{},
		&ListExpression{}, &AssignStatement{}, &DefineStatement{}, &IfStatement{},
		&ForeachStatement{}, &InvokeStatement{},
	}
	for _, n := range nodes {
		_, err := Visit[int, struct{}](v, n, struct{}{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"template", "text", "attr", "const", "ref", "unary", "binary",
		"call", "list", "assign", "define", "if", "foreach", "invoke"}, v.kinds)
}

func TestInspectVisitsParams(t *testing.T) {
	ref := &Reference{IsModelRef: true, Path: []string{"user", "name"}}
	list, err := NewListParam(Pos0(), []ParameterValue{NewPrimitiveParam(ref)})
	require.NoError(t, err)
	params, err := NewStructuredParam(Pos0(), []ParamField{{Name: "names", Value: list}})
	require.NoError(t, err)

	tree := &Template{Items: []Node{
		&LiteralText{Text: "a"},
		&InvokeStatement{Locator: "x", Params: params},
	}}

	var seen []Node
	Inspect(tree, func(n Node) bool {
		seen = append(seen, n)
		return true
	})
	require.Len(t, seen, 4)
	assert.Same(t, ref, seen[3])
}

func TestPretty(t *testing.T) {
	one := NewNumberConstant(Pos0(), 1)
	tree := &Template{Items: []Node{
		&LiteralText{Text: "hi "},
		&ForeachStatement{
			Attrs:      map[string]string{AttrSeparator: ","},
			Var:        "i",
			Collection: &ListExpression{Items: []Expression{one}},
			Body: &Template{Items: []Node{
				&AssignStatement{X: &BinaryExpression{
					Left: &Reference{Path: []string{"i"}}, Op: OpEQ, Right: NewStringConstant(Pos0(), "a\n"),
				}},
			}},
		},
	}}

	expected := `Template @?
  Text("hi ")
  Foreach[separator=","](i in [1]) @?
    Template @?
      Assign((i == "a\n")) @?
`
	assert.Equal(t, expected, Pretty(tree))
}
