// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concept of Position: a source name (usually a
template file), a line and a column within that source.

Positions are crucial when reporting errors to the user: every template node
carries a Span (begin and end Position) so that parse, resolve and evaluation
failures can point back to the offending text.

Not all Positions point within a file (e.g. nodes built programmatically). The
zero-value of Position (can be created using NewUnknownPosition()) represents
this case.
*/
package filepos
