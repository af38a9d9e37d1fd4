// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"io"
	"strings"

	"carvel.dev/mtpl/pkg/markup"
)

// Sink receives rendered output. WriteText gets unescaped text content
// and escapes it; WriteRaw writes as is.
type Sink interface {
	WriteText(string) error
	WriteRaw(string) error
}

// WriterSink escapes text content with its format and writes to w.
type WriterSink struct {
	w      io.Writer
	format markup.Format
}

var _ Sink = &WriterSink{}

func NewWriterSink(w io.Writer, format markup.Format) *WriterSink {
	return &WriterSink{w: w, format: format}
}

func (s *WriterSink) Format() markup.Format { return s.format }

func (s *WriterSink) WriteText(str string) error {
	return s.WriteRaw(s.format.EscapeText(str))
}

func (s *WriterSink) WriteRaw(str string) error {
	_, err := io.WriteString(s.w, str)
	return err
}

// StringSink collects output in memory.
type StringSink struct {
	WriterSink
	buf *strings.Builder
}

func NewStringSink(format markup.Format) *StringSink {
	buf := &strings.Builder{}
	return &StringSink{WriterSink: WriterSink{w: buf, format: format}, buf: buf}
}

func (s *StringSink) String() string { return s.buf.String() }

// attrSink escapes text content of an attribute value with the
// attribute escaper. Raw content, such as literal text the author
// already escaped, passes through unchanged.
type attrSink struct {
	parent Sink
	format markup.Format
}

func (s attrSink) WriteText(str string) error { return s.parent.WriteRaw(s.format.EscapeAttr(str)) }
func (s attrSink) WriteRaw(str string) error  { return s.parent.WriteRaw(str) }

// bufferSink collects unescaped content, e.g. of a text body passed as
// an invocation parameter.
type bufferSink struct {
	buf strings.Builder
}

func (s *bufferSink) WriteText(str string) error {
	s.buf.WriteString(str)
	return nil
}

func (s *bufferSink) WriteRaw(str string) error {
	s.buf.WriteString(str)
	return nil
}

func (s *bufferSink) String() string { return s.buf.String() }
