// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package model_test

import (
	"testing"

	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAMLKeepsOrder(t *testing.T) {
	vals, err := model.FromYAML([]byte(`
zeta: 1
alpha:
  name: x
  ratio: 0.5
defaults: &defaults
  color: red
theme:
  <<: *defaults
  size: 2
list: [a, true, null]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "defaults", "theme", "list"}, vals.Keys())

	zeta, _ := vals.Get("zeta")
	assert.Equal(t, int64(1), zeta)

	ratio, err := model.Walk(vals, "", []string{"alpha", "ratio"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	theme, _ := vals.Get("theme")
	assert.Equal(t, []string{"color", "size"}, theme.(*orderedmap.Map).Keys())

	list, _ := vals.Get("list")
	assert.Equal(t, []interface{}{"a", true, nil}, list)
}

func TestFromYAMLEmptyAndInvalid(t *testing.T) {
	vals, err := model.FromYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, vals.Len())

	_, err = model.FromYAML([]byte("- a\n- b\n"))
	assert.EqualError(t, err, "Expected data values to be a map, but was list")

	_, err = model.FromYAML([]byte("a: [\n"))
	require.Error(t, err)
}

func TestFromYAMLValue(t *testing.T) {
	val, err := model.FromYAMLValue("[1, two]")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), "two"}, val)
}

func TestFromTOMLKeepsOrder(t *testing.T) {
	vals, err := model.FromTOML([]byte(`
title = "Site"
count = 3

[owner]
name = "ann"
age = 40

[[items]]
name = "b"
price = 1.5

[[items]]
name = "a"
price = 2.0
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "count", "owner", "items"}, vals.Keys())

	owner, _ := vals.Get("owner")
	assert.Equal(t, []string{"name", "age"}, owner.(*orderedmap.Map).Keys())

	items, _ := vals.Get("items")
	require.Len(t, items, 2)
	first := items.([]interface{})[0].(*orderedmap.Map)
	assert.Equal(t, []string{"name", "price"}, first.Keys())

	count, _ := vals.Get("count")
	assert.Equal(t, int64(3), count)

	_, err = model.FromTOML([]byte("title = "))
	require.Error(t, err)
}

func TestToYAMLKeepsOrder(t *testing.T) {
	vals, err := model.FromYAML([]byte("zeta: 1\nalpha:\n  b: [x, true]\n  a: null\n"))
	require.NoError(t, err)

	out, err := model.ToYAML(vals)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha:\n    b:\n        - x\n        - true\n    a: null\n", string(out))
}
