// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"

	"carvel.dev/mtpl/pkg/filepos"
)

// SyntaxError is returned for malformed template source.
type SyntaxError struct {
	Span filepos.Span
	Msg  string
	Err  error
}

func NewSyntaxError(span filepos.Span, msg string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Span: span, Msg: fmt.Sprintf(msg, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %s", e.Msg, e.Span.Begin.AsCompactString())
}

func (e *SyntaxError) Unwrap() error { return e.Err }
