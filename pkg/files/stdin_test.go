// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdinReadOnce(t *testing.T) {
	r := &stdinReader{in: strings.NewReader("hello ${name}")}

	data, err := r.read()
	require.NoError(t, err)
	assert.Equal(t, "hello ${name}", string(data))

	_, err = r.read()
	require.EqualError(t, err, "Expected standard input to be used by at most one '-' argument")
}

func TestLocalSourceRelativePath(t *testing.T) {
	dir := t.TempDir()

	relPath, err := NewLocalSource(filepath.Join(dir, "pages", "index.html"), dir).RelativePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("pages", "index.html"), relPath)

	relPath, err = NewLocalSource(filepath.Join(dir, "index.html"), "").RelativePath()
	require.NoError(t, err)
	assert.Equal(t, "index.html", relPath)

	_, err = NewLocalSource(filepath.Join(dir, "..", "other.html"), dir).RelativePath()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to be within directory")
}
