// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package workspace is home to primitives for loading and rendering a set of mtpl
files: templates, partials, starlark function libraries and data values.

A Workspace parses and resolves each template once (trees are cached by
content hash) and renders any number of templates, concurrently if needed,
resolving invoke statements against its own files.
*/
package workspace
