// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"

	"carvel.dev/mtpl/pkg/filepos"
)

// ParameterValue is an invocation argument: a PrimitiveParam, a
// ListParam or a StructuredParam. Lists never directly contain lists;
// the constructors enforce it.
type ParameterValue interface {
	Pos() filepos.Span
	paramValue()
}

type PrimitiveParam struct {
	Span filepos.Span
	Node Node
}

type ListParam struct {
	Span  filepos.Span
	items []ParameterValue
}

type StructuredParam struct {
	Span   filepos.Span
	fields []ParamField
}

type ParamField struct {
	Name  string
	Value ParameterValue
}

func NewPrimitiveParam(node Node) *PrimitiveParam {
	return &PrimitiveParam{Span: node.Pos(), Node: node}
}

func NewListParam(span filepos.Span, items []ParameterValue) (*ListParam, error) {
	for i, item := range items {
		if _, isList := item.(*ListParam); isList {
			return nil, fmt.Errorf("list parameter item %d: lists of lists are not allowed", i)
		}
	}
	return &ListParam{Span: span, items: items}, nil
}

func NewStructuredParam(span filepos.Span, fields []ParamField) (*StructuredParam, error) {
	seen := map[string]struct{}{}
	for _, field := range fields {
		if _, found := seen[field.Name]; found {
			return nil, fmt.Errorf("duplicate parameter '%s'", field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return &StructuredParam{Span: span, fields: fields}, nil
}

func (p *ListParam) Items() []ParameterValue { return p.items }

// Fields returns fields in declaration order.
func (p *StructuredParam) Fields() []ParamField {
	if p == nil {
		return nil
	}
	return p.fields
}

func (p *StructuredParam) Get(name string) (ParameterValue, bool) {
	for _, field := range p.Fields() {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

func (p *PrimitiveParam) Pos() filepos.Span  { return p.Span }
func (p *ListParam) Pos() filepos.Span       { return p.Span }
func (p *StructuredParam) Pos() filepos.Span { return p.Span }

func (*PrimitiveParam) paramValue()  {}
func (*ListParam) paramValue()       {}
func (*StructuredParam) paramValue() {}
