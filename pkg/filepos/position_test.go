// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos_test

import (
	"testing"

	"carvel.dev/mtpl/pkg/filepos"
	"github.com/stretchr/testify/assert"
)

func TestPositionCompactString(t *testing.T) {
	assert.Equal(t, "tpl.html:3:7", filepos.NewPositionAt("tpl.html", 3, 7).AsCompactString())
	assert.Equal(t, "tpl.html:3", filepos.NewPositionInFile(3, "tpl.html").AsCompactString())
	assert.Equal(t, "?", filepos.NewUnknownPosition().AsCompactString())
	assert.Equal(t, "line 2", filepos.NewPosition(2).AsString())
}

func TestSpanCompactString(t *testing.T) {
	span := filepos.NewSpan(filepos.NewPositionAt("a", 1, 2), filepos.NewPositionAt("a", 1, 9))
	assert.Equal(t, "a:1:2-1:9", span.AsCompactString())

	same := filepos.NewSpan(filepos.NewPositionAt("a", 1, 2), filepos.NewPositionAt("a", 1, 2))
	assert.Equal(t, "a:1:2", same.AsCompactString())

	assert.Equal(t, "?", filepos.UnknownSpan().AsCompactString())
}

func TestPositionIsBefore(t *testing.T) {
	a := filepos.NewPositionAt("f", 2, 5)
	b := filepos.NewPositionAt("f", 2, 6)
	c := filepos.NewPositionAt("g", 1, 1)

	assert.True(t, a.IsBefore(b))
	assert.False(t, b.IsBefore(a))
	assert.False(t, a.IsBefore(c))
	assert.False(t, filepos.NewUnknownPosition().IsBefore(a))
}
