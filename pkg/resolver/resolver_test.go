// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package resolver_test

import (
	"errors"
	"testing"

	"carvel.dev/mtpl/pkg/resolver"
	"carvel.dev/mtpl/pkg/template"
	"carvel.dev/mtpl/pkg/texttemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseScript(t *testing.T, src string) *template.Template {
	tpl, err := texttemplate.NewParser().ParseScript([]byte(src), "stdin")
	require.NoError(t, err)
	return tpl
}

func references(n template.Node, name string) []*template.Reference {
	var refs []*template.Reference
	template.Inspect(n, func(n template.Node) bool {
		if ref, ok := n.(*template.Reference); ok && ref.Path[0] == name {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}

func TestResolveAssignsSymbolToEveryExpression(t *testing.T) {
	tpl := parseScript(t, `def a = 1; = a == 2 && upper("x") != $m.n; = [1, a]`)

	tree, err := resolver.Resolve(tpl, resolver.Options{})
	require.NoError(t, err)

	var exprs []template.Expression
	template.Inspect(tpl, func(n template.Node) bool {
		if e, ok := n.(template.Expression); ok {
			exprs = append(exprs, e)
		}
		return true
	})

	assert.Equal(t, len(exprs), tree.NumSymbols)
	seen := map[resolver.Symbol]bool{}
	for _, e := range exprs {
		sym, found := tree.Symbols[e]
		require.True(t, found, "expression %s", template.ExprString(e))
		assert.False(t, seen[sym])
		seen[sym] = true
	}
}

func TestResolveSequentialVisibility(t *testing.T) {
	_, err := resolver.Resolve(parseScript(t, `= a; def a = 1`), resolver.Options{})
	require.Error(t, err)

	var bindingErr *resolver.BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, resolver.Unbound, bindingErr.Kind)
	assert.Equal(t, "Undefined variable 'a' at stdin:1:3", err.Error())

	_, err = resolver.Resolve(parseScript(t, `def a = 1; = a`), resolver.Options{})
	require.NoError(t, err)

	// own expression cannot see the name being defined
	_, err = resolver.Resolve(parseScript(t, `def a = a`), resolver.Options{})
	require.Error(t, err)
}

func TestResolveForeachVariableDoesNotLeak(t *testing.T) {
	_, err := resolver.Resolve(parseScript(t, `foreach i in [1] { <%= i %> }; = i`), resolver.Options{})
	require.Error(t, err)
	assert.Equal(t, "Undefined variable 'i' at stdin:1:34", err.Error())

	_, err = resolver.Resolve(parseScript(t, `foreach i in [1] { <% def d = i %> }; = d`), resolver.Options{})
	require.Error(t, err)
}

func TestResolveShadowing(t *testing.T) {
	tpl := parseScript(t, `def x = 1; foreach i in [2] { <% def x = i %><%= x %> }; = x`)

	tree, err := resolver.Resolve(tpl, resolver.Options{})
	require.NoError(t, err)

	refs := references(tpl, "x")
	require.Len(t, refs, 2)

	outerDef := tpl.Items[0].(*template.DefineStatement)
	inner := tree.Decls[refs[0]]
	outer := tree.Decls[refs[1]]

	assert.Equal(t, outerDef, outer.Decl)
	assert.NotEqual(t, inner.Slot, outer.Slot)
	assert.Equal(t, outer.Slot, tree.DeclSlot(outerDef))
	assert.Equal(t, 3, tree.NumSlots)
}

func TestResolveModelReferencesAreNotBound(t *testing.T) {
	tpl := parseScript(t, `= $x.y; = $ns:z`)

	tree, err := resolver.Resolve(tpl, resolver.Options{})
	require.NoError(t, err)
	assert.Empty(t, tree.Decls)
	assert.Empty(t, tree.FreeNames)
}

func TestResolveFreeNames(t *testing.T) {
	tpl := parseScript(t, `= title; foreach t in tags { <%= t %><%= title %> }`)

	_, err := resolver.Resolve(tpl, resolver.Options{})
	require.Error(t, err)

	tree, err := resolver.Resolve(tpl, resolver.Options{AllowFreeNames: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "tags"}, tree.FreeNames)

	title, found := tree.FreeName("title")
	require.True(t, found)
	assert.Nil(t, title.Decl)

	for _, ref := range references(tpl, "title") {
		assert.Same(t, title, tree.Decls[ref])
	}

	_, found = tree.FreeName("t")
	assert.False(t, found)
}

func TestResolveInvocations(t *testing.T) {
	tpl := parseScript(t, `def v = 1; invoke "a" (x: v); if true { <% invoke "b"#xml (y: [v]) %> }`)

	tree, err := resolver.Resolve(tpl, resolver.Options{})
	require.NoError(t, err)

	require.Len(t, tree.Invocations, 2)
	assert.Equal(t, "a", tree.Invocations[0].Locator)
	assert.Equal(t, "", tree.Invocations[0].Format)
	assert.Equal(t, "b", tree.Invocations[1].Locator)
	assert.Equal(t, "xml", tree.Invocations[1].Format)

	// parameter expressions are resolved in the caller's scope
	_, err = resolver.Resolve(parseScript(t, `invoke "a" (x: {y: w})`), resolver.Options{})
	require.Error(t, err)
}

func TestResolveDoesNotModifyTree(t *testing.T) {
	tpl := parseScript(t, `def a = 1; if a == 1 { <%= a %> }`)
	before := template.Pretty(tpl)

	_, err := resolver.Resolve(tpl, resolver.Options{})
	require.NoError(t, err)
	assert.Equal(t, before, template.Pretty(tpl))
}

func TestResolveDoubleAssignmentPanics(t *testing.T) {
	shared := template.NewBoolConstant(template.Pos0(), true)
	tpl := &template.Template{Items: []template.Node{
		&template.AssignStatement{X: shared},
		&template.AssignStatement{X: shared},
	}}

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		bindingErr, ok := rec.(*resolver.BindingError)
		require.True(t, ok)
		assert.Equal(t, resolver.DoubleAssignment, bindingErr.Kind)
	}()

	_, _ = resolver.Resolve(tpl, resolver.Options{})
	t.Fatalf("expected panic")
}

func TestResolveInvalidReference(t *testing.T) {
	tpl := &template.Template{Items: []template.Node{
		&template.AssignStatement{X: &template.Reference{IsModelRef: true, Path: []string{"a", ""}, Span: template.Pos0()}},
	}}

	_, err := resolver.Resolve(tpl, resolver.Options{})
	var bindingErr *resolver.BindingError
	require.ErrorAs(t, err, &bindingErr)
	assert.Equal(t, resolver.InvalidReference, bindingErr.Kind)
}

func TestResolveLoopSlots(t *testing.T) {
	tpl := parseScript(t, `def a = 1; foreach i in [1] { <% def b = free %><% foreach j in [2] { x } %> }`)

	tree, err := resolver.Resolve(tpl, resolver.Options{AllowFreeNames: true})
	require.NoError(t, err)

	outer := tpl.Items[1].(*template.ForeachStatement)
	// i, b and j; 'free' and 'a' are not cleared between iterations
	assert.Equal(t, []int{1, 3, 4}, tree.LoopSlots(outer))
}
