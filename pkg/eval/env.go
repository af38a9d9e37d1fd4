// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"context"
	"io"

	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"carvel.dev/mtpl/pkg/resolver"
)

const DefaultMaxDepth = 32

// TemplateLoader finds invoked templates by locator and format tag
// (empty when the invoke statement has none). A template that does not
// have the requested format is not found.
type TemplateLoader interface {
	Load(ctx context.Context, locator, format string) (*resolver.ResolvedTree, error)
}

type Logger interface {
	Debugf(str string, args ...interface{})
}

// Env is the initial environment of an evaluation.
type Env struct {
	Model  model.Model
	Funcs  funcs.Registry
	Loader TemplateLoader
	Sink   Sink

	// Format escapes attribute values, in invoked templates too.
	// Defaults to the format of Sink.
	Format markup.Format

	// Params supply free names of the template (see resolver.Options).
	// They are also visible as model references.
	Params *orderedmap.Map

	// MaxDepth limits nested invocations; DefaultMaxDepth when 0.
	MaxDepth int

	Logger Logger
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}

func (e Env) withDefaults() Env {
	if e.Model == nil {
		e.Model = model.NewData()
	}
	if e.Funcs == nil {
		e.Funcs = funcs.Map{}
	}
	if e.Format == nil {
		if formatted, ok := e.Sink.(interface{ Format() markup.Format }); ok {
			e.Format = formatted.Format()
		} else {
			e.Format = markup.Text
		}
	}
	if e.Sink == nil {
		e.Sink = NewWriterSink(io.Discard, e.Format)
	}
	if e.MaxDepth == 0 {
		e.MaxDepth = DefaultMaxDepth
	}
	if e.Logger == nil {
		e.Logger = noopLogger{}
	}
	return e
}
