// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"errors"

	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"carvel.dev/mtpl/pkg/template"
)

// VisitInvoke renders the invoked template in a fresh frame. The callee
// sees only its parameters and the model; caller bindings are not
// visible to it. A format tag only narrows which template is loaded.
func (e *evaluator) VisitInvoke(n *template.InvokeStatement, s *scope) (interface{}, error) {
	depth := s.frame.depth + 1
	if depth > e.env.MaxDepth {
		return nil, newError(ErrInvocationDepthExceeded, n.Pos(),
			"Invoking template '%s' exceeds maximum invocation depth of %d", n.Locator, e.env.MaxDepth)
	}

	if len(n.Format) > 0 {
		if _, err := markup.Lookup(n.Format); err != nil {
			return nil, newError(ErrTemplateNotFound, n.Pos(), "Invoking template '%s'", n.Locator).withErr(err)
		}
	}

	if e.env.Loader == nil {
		return nil, newError(ErrTemplateNotFound, n.Pos(), "Template '%s' not found (no template loader)", n.Locator)
	}
	tree, err := e.env.Loader.Load(e.ctx, n.Locator, n.Format)
	if err != nil {
		return nil, newError(ErrTemplateNotFound, n.Pos(), "Loading template '%s'", n.Locator).withErr(err)
	}

	params, err := e.evalParams(n.Params, s)
	if err != nil {
		return nil, err
	}

	f := newFrame(tree, n.Locator, depth, model.Overlay(params, e.env.Model))
	for _, name := range tree.FreeNames {
		val, found := params.Get(name)
		if !found {
			return nil, newError(ErrUnresolvedVariable, n.Pos(),
				"Expected parameter '%s' for template '%s' to be provided", name, n.Locator)
		}
		b, _ := tree.FreeName(name)
		f.set(b.Slot, val)
	}

	e.env.Logger.Debugf("invoking template '%s' (depth %d)\n", n.Locator, depth)

	// output keeps the caller's escaping
	_, err = e.eval(tree.Template, &scope{frame: f, out: s.out, format: s.format})
	if err != nil {
		var evalErr *Error
		if errors.As(err, &evalErr) {
			evalErr.Trace = append(evalErr.Trace, TraceEntry{Locator: n.Locator, Pos: n.Pos()})
			return nil, evalErr
		}
		return nil, err
	}
	return nil, nil
}

func (e *evaluator) evalParams(p *template.StructuredParam, s *scope) (*orderedmap.Map, error) {
	result := orderedmap.NewMap()
	for _, field := range p.Fields() {
		val, err := e.evalParam(field.Value, s)
		if err != nil {
			return nil, err
		}
		result.Set(field.Name, val)
	}
	return result, nil
}

func (e *evaluator) evalParam(p template.ParameterValue, s *scope) (interface{}, error) {
	switch typedParam := p.(type) {
	case *template.PrimitiveParam:
		if expr, ok := typedParam.Node.(template.Expression); ok {
			return e.eval(expr, s)
		}
		// text bodies are passed as unescaped strings
		buf := &bufferSink{}
		if _, err := e.eval(typedParam.Node, s.withOut(buf)); err != nil {
			return nil, err
		}
		return buf.String(), nil

	case *template.ListParam:
		result := make([]interface{}, 0, len(typedParam.Items()))
		for _, item := range typedParam.Items() {
			val, err := e.evalParam(item, s)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case *template.StructuredParam:
		return e.evalParams(typedParam, s)

	default:
		panic("Unknown parameter value")
	}
}
