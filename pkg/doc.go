// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of mtpl.

This codebase is organized into layers. Packages depend on each other only to
the degree required; the template core (template, resolver, eval) knows nothing
about files, flags or HTTP.

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

mtpl is built into two executable formats:

	./cmd/mtpl                  // a command-line tool
	./cmd/mtpl-lambda-website   // an AWS Lambda function serving pkg/website

	(1) => pkg/website => (0)

# Commands

	(2) => pkg/cmd => (9)
	(2) => pkg/cmd/render => (7)
	(2) => pkg/cmd/ui => (0)

# The Workspace

A workspace is the set of files rendered together: templates, partials only
reachable through invoke statements, and starlark files defining functions.
Resolved trees are cached by content hash.

	(1) => pkg/workspace => (6)
	(3) => pkg/files => (1)

# Templating

Source text is parsed into a tree of nodes, names are resolved to slots in a
separate pass, and the resolved tree is evaluated against a model, a function
registry and a template loader.

	(4) => pkg/template => (1)
	(2) => pkg/texttemplate => (2)
	(3) => pkg/resolver => (2)
	(2) => pkg/eval => (8)
	(2) => pkg/markup => (0)

# Values and Functions

	(4) => pkg/model => (1)
	(3) => pkg/funcs => (2)

# Utilities

	(4) => pkg/filepos => (0)
	(4) => pkg/orderedmap => (0)
	(1) => pkg/spell => (0)
	(2) => pkg/version => (0)
*/
package pkg
