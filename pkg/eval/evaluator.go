// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"context"
	"errors"
	"strings"

	"carvel.dev/mtpl/pkg/filepos"
	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"carvel.dev/mtpl/pkg/resolver"
	"carvel.dev/mtpl/pkg/spell"
	"carvel.dev/mtpl/pkg/template"
)

// Evaluate renders a resolved tree to env.Sink. The tree is not
// modified; concurrent evaluations of the same tree are independent.
// Output written before an error is left in the sink.
func Evaluate(ctx context.Context, tree *resolver.ResolvedTree, env Env) error {
	env = env.withDefaults()

	e := &evaluator{ctx: ctx, env: env}

	params := env.Params
	if params == nil {
		params = orderedmap.NewMap()
	}

	f := newFrame(tree, "", 0, model.Overlay(params, env.Model))
	for _, name := range tree.FreeNames {
		val, found := params.Get(name)
		if !found {
			return newError(ErrUnresolvedVariable, freeNamePos(tree, name),
				"Expected parameter '%s' to be provided", name)
		}
		b, _ := tree.FreeName(name)
		f.set(b.Slot, val)
	}

	_, err := e.eval(tree.Template, &scope{frame: f, out: env.Sink, format: env.Format})
	return err
}

// RenderString evaluates tree into a string using env.Format (or
// text) for escaping; env.Sink is ignored.
func RenderString(ctx context.Context, tree *resolver.ResolvedTree, env Env) (string, error) {
	format := env.Format
	if format == nil {
		format = markup.Text
	}
	sink := NewStringSink(format)
	env.Sink = sink
	env.Format = format

	err := Evaluate(ctx, tree, env)
	return sink.String(), err
}

type evaluator struct {
	ctx context.Context
	env Env
}

var _ template.Visitor[interface{}, *scope] = &evaluator{}

// eval is the single dispatch point of the evaluation and the
// cancellation checkpoint.
func (e *evaluator) eval(n template.Node, s *scope) (interface{}, error) {
	if err := e.ctx.Err(); err != nil {
		return nil, newError(ErrCanceled, n.Pos(), "Evaluation canceled").withErr(err)
	}
	return template.Visit[interface{}, *scope](e, n, s)
}

func (e *evaluator) evalAll(items []template.Node, s *scope) error {
	for _, item := range items {
		if _, err := e.eval(item, s); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluator) VisitTemplate(n *template.Template, s *scope) (interface{}, error) {
	return nil, e.evalAll(n.Items, s)
}

func (e *evaluator) VisitLiteralText(n *template.LiteralText, s *scope) (interface{}, error) {
	return nil, s.out.WriteRaw(n.Text)
}

func (e *evaluator) VisitAttributeValue(n *template.AttributeValue, s *scope) (interface{}, error) {
	return nil, e.evalAll(n.Items, s.withOut(attrSink{parent: s.out, format: s.format}))
}

func (e *evaluator) VisitConstant(n *template.Constant, _ *scope) (interface{}, error) {
	return n.Value(), nil
}

func (e *evaluator) VisitReference(n *template.Reference, s *scope) (interface{}, error) {
	if n.IsModelRef {
		val, err := s.frame.model.ResolvePath(n.Namespace, n.Path)
		if err != nil {
			var pathErr *model.PathError
			if errors.As(err, &pathErr) {
				kind := ErrUnresolvedVariable
				if pathErr.Missing > 0 {
					kind = ErrUnresolvedMember
				}
				return nil, newError(kind, n.Pos(), "%s", pathErr.Error())
			}
			return nil, newError(ErrUnresolvedVariable, n.Pos(), "Resolving '%s'", n.String()).withErr(err)
		}
		return val, nil
	}

	b, found := s.frame.tree.Decls[n]
	if !found {
		return nil, newError(ErrUnresolvedVariable, n.Pos(), "Undefined variable '%s'", n.Path[0])
	}
	val, bound := s.frame.get(b.Slot)
	if !bound {
		return nil, newError(ErrUnresolvedVariable, n.Pos(), "Variable '%s' has no value", n.Path[0])
	}

	for i := 1; i < len(n.Path); i++ {
		next, found := model.Member(val, n.Path[i])
		if !found {
			return nil, newError(ErrUnresolvedMember, n.Pos(), "Undefined member '%s' of '%s' (%s)",
				n.Path[i], strings.Join(n.Path[:i], "."), model.TypeName(val))
		}
		val = next
	}
	return val, nil
}

func (e *evaluator) VisitUnary(n *template.UnaryExpression, s *scope) (interface{}, error) {
	val, err := e.eval(n.X, s)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case template.OpNot:
		typedVal, ok := val.(bool)
		if !ok {
			return nil, newError(ErrTypeMismatch, n.Pos(), "Expected operand of '!' to be a bool, but was %s", model.TypeName(val))
		}
		return !typedVal, nil
	default:
		panic("Unknown unary operator " + n.Op.String())
	}
}

func (e *evaluator) VisitBinary(n *template.BinaryExpression, s *scope) (interface{}, error) {
	left, err := e.eval(n.Left, s)
	if err != nil {
		return nil, err
	}

	if n.Op == template.OpAnd || n.Op == template.OpOr {
		leftBool, ok := left.(bool)
		if !ok {
			return nil, newError(ErrTypeMismatch, n.Left.Pos(), "Expected left operand of '%s' to be a bool, but was %s", n.Op, model.TypeName(left))
		}
		if (n.Op == template.OpAnd && !leftBool) || (n.Op == template.OpOr && leftBool) {
			return leftBool, nil
		}
		right, err := e.eval(n.Right, s)
		if err != nil {
			return nil, err
		}
		rightBool, ok := right.(bool)
		if !ok {
			return nil, newError(ErrTypeMismatch, n.Right.Pos(), "Expected right operand of '%s' to be a bool, but was %s", n.Op, model.TypeName(right))
		}
		return rightBool, nil
	}

	right, err := e.eval(n.Right, s)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case template.OpEQ:
		return model.Equal(left, right), nil
	case template.OpNE:
		return !model.Equal(left, right), nil
	}

	cmp, err := model.Compare(left, right)
	if err != nil {
		return nil, newError(ErrTypeMismatch, n.Pos(), "Operator '%s'", n.Op).withErr(err)
	}
	switch n.Op {
	case template.OpGE:
		return cmp >= 0, nil
	case template.OpLE:
		return cmp <= 0, nil
	case template.OpGT:
		return cmp > 0, nil
	case template.OpLT:
		return cmp < 0, nil
	default:
		panic("Unknown binary operator " + n.Op.String())
	}
}

func (e *evaluator) VisitFunctionCall(n *template.FunctionCall, s *scope) (interface{}, error) {
	callable, found := e.env.Funcs.Lookup(n.Name)
	if !found {
		if hint, ok := spell.NewChecker(funcs.Names(e.env.Funcs)).Correction(n.Name); ok {
			return nil, newError(ErrUnknownFunction, n.Pos(), "Unknown function '%s' (hint: did you mean '%s'?)", n.Name, hint)
		}
		return nil, newError(ErrUnknownFunction, n.Pos(), "Unknown function '%s'", n.Name)
	}

	args := make([]interface{}, 0, len(n.Args))
	for _, arg := range n.Args {
		val, err := e.eval(arg, s)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	result, err := funcs.InvokeContext(e.ctx, callable, args)
	if err != nil {
		if ctxErr := e.ctx.Err(); ctxErr != nil {
			return nil, newError(ErrCanceled, n.Pos(), "Evaluation canceled in function '%s'", n.Name).withErr(ctxErr)
		}
		return nil, newError(ErrFunction, n.Pos(), "Calling function '%s'", n.Name).withErr(err)
	}
	return result, nil
}

func (e *evaluator) VisitList(n *template.ListExpression, s *scope) (interface{}, error) {
	result := make([]interface{}, 0, len(n.Items))
	for _, item := range n.Items {
		val, err := e.eval(item, s)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func (e *evaluator) VisitAssign(n *template.AssignStatement, s *scope) (interface{}, error) {
	val, err := e.eval(n.X, s)
	if err != nil {
		return nil, err
	}
	str, err := model.ToString(val)
	if err != nil {
		return nil, newError(ErrTypeMismatch, n.Pos(), "Rendering '%s'", template.ExprString(n.X)).withErr(err)
	}
	return nil, s.out.WriteText(str)
}

func (e *evaluator) VisitDefine(n *template.DefineStatement, s *scope) (interface{}, error) {
	val, err := e.eval(n.X, s)
	if err != nil {
		return nil, err
	}
	s.frame.set(s.frame.tree.DeclSlot(n), val)
	return nil, nil
}

func (e *evaluator) VisitIf(n *template.IfStatement, s *scope) (interface{}, error) {
	cond, err := e.eval(n.Cond, s)
	if err != nil {
		return nil, err
	}
	condBool, ok := cond.(bool)
	if !ok {
		return nil, newError(ErrTypeMismatch, n.Cond.Pos(), "Expected if condition to be a bool, but was %s", model.TypeName(cond))
	}
	if condBool {
		return e.eval(n.Then, s)
	}
	if n.Else != nil {
		return e.eval(n.Else, s)
	}
	return nil, nil
}

func (e *evaluator) VisitForeach(n *template.ForeachStatement, s *scope) (interface{}, error) {
	coll, err := e.eval(n.Collection, s)
	if err != nil {
		return nil, err
	}

	var items []interface{}
	switch typedColl := coll.(type) {
	case []interface{}:
		items = typedColl
	case *orderedmap.Map:
		for _, key := range typedColl.Keys() {
			items = append(items, key)
		}
	case string:
		for _, r := range typedColl {
			items = append(items, string(r))
		}
	default:
		return nil, newError(ErrTypeMismatch, n.Collection.Pos(), "Expected collection of foreach '%s' to be a list, map or string, but was %s", n.LoopName(), model.TypeName(coll))
	}

	separator, hasSeparator := n.Attrs[template.AttrSeparator]
	varSlot := s.frame.tree.DeclSlot(n)
	loopSlots := s.frame.tree.LoopSlots(n)

	for i, item := range items {
		if i > 0 && hasSeparator {
			if err := s.out.WriteRaw(separator); err != nil {
				return nil, err
			}
		}
		s.frame.unset(loopSlots)
		s.frame.set(varSlot, item)
		if _, err := e.eval(n.Body, s); err != nil {
			return nil, err
		}
	}
	s.frame.unset(loopSlots)
	return nil, nil
}

// freeNamePos returns the first use of a free name in source order.
func freeNamePos(tree *resolver.ResolvedTree, name string) filepos.Span {
	pos := tree.Template.Pos()
	found := false
	template.Inspect(tree.Template, func(n template.Node) bool {
		if ref, ok := n.(*template.Reference); ok && !found {
			if b, bound := tree.Decls[ref]; bound && b.Decl == nil && b.Name == name {
				pos = ref.Pos()
				found = true
			}
		}
		return !found
	})
	return pos
}
