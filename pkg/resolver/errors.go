// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"fmt"

	"carvel.dev/mtpl/pkg/filepos"
)

type BindingErrorKind int

const (
	// Unbound is a non-model reference to a name that is not in scope
	Unbound BindingErrorKind = iota
	// DoubleAssignment is an expression bound to a symbol twice; it
	// indicates a malformed tree (e.g. a node shared between parents)
	DoubleAssignment
	// InvalidReference is a reference with an empty path segment
	InvalidReference
)

func (k BindingErrorKind) String() string {
	switch k {
	case Unbound:
		return "Unbound"
	case DoubleAssignment:
		return "DoubleAssignment"
	case InvalidReference:
		return "InvalidReference"
	default:
		return fmt.Sprintf("BindingErrorKind(%d)", int(k))
	}
}

type BindingError struct {
	Kind BindingErrorKind
	Name string
	Pos  filepos.Span
}

func (e *BindingError) Error() string {
	switch e.Kind {
	case Unbound:
		return fmt.Sprintf("Undefined variable '%s' at %s", e.Name, e.Pos.Begin.AsCompactString())
	case DoubleAssignment:
		return fmt.Sprintf("Expression '%s' at %s is already bound to a symbol", e.Name, e.Pos.Begin.AsCompactString())
	default:
		return fmt.Sprintf("Invalid reference '%s' at %s", e.Name, e.Pos.Begin.AsCompactString())
	}
}
