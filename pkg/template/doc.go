// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package template provides the node model of mtpl templates.

A template is text interleaved with expressions and statements. The parser
(see package texttemplate) turns source text into a tree of Nodes rooted at a
*Template. The tree is a closed sum of node kinds: every kind is listed in
the Visitor interface and dispatched by Visit.

Trees are immutable once built. Resolution (package resolver) records
symbol bindings in a side table keyed by node identity, and one resolved
tree may be shared by concurrent evaluations (package eval).
*/
package template
