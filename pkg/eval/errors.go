// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"errors"
	"fmt"
	"strings"

	"carvel.dev/mtpl/pkg/filepos"
)

// Kinds of evaluation errors; match with errors.Is.
var (
	ErrUnresolvedVariable      = errors.New("unresolved variable")
	ErrUnresolvedMember        = errors.New("unresolved member")
	ErrTypeMismatch            = errors.New("type mismatch")
	ErrUnknownFunction         = errors.New("unknown function")
	ErrFunction                = errors.New("function error")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrInvocationDepthExceeded = errors.New("invocation depth exceeded")
	ErrCanceled                = errors.New("evaluation canceled")
)

// Error aborts a single evaluation. Trace lists the invoke statements
// that led to the failing template, innermost first.
type Error struct {
	Kind  error
	Pos   filepos.Span
	Msg   string
	Err   error
	Trace []TraceEntry
}

type TraceEntry struct {
	Locator string
	Pos     filepos.Span
}

func newError(kind error, pos filepos.Span, msg string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(msg, args...)}
}

func (e *Error) withErr(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if e.Pos.IsKnown() {
		sb.WriteString(" at ")
		sb.WriteString(e.Pos.Begin.AsCompactString())
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	for _, entry := range e.Trace {
		fmt.Fprintf(&sb, "\n  in template '%s' invoked at %s", entry.Locator, entry.Pos.Begin.AsCompactString())
	}
	return sb.String()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }
