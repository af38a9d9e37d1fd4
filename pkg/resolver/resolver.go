// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"fmt"

	"carvel.dev/mtpl/pkg/filepos"
	"carvel.dev/mtpl/pkg/template"
)

// Symbol identifies an expression of a resolved tree.
type Symbol int

// Binding is a name declared by a def, a foreach loop variable or a free
// name. Each binding owns one storage slot of an evaluation frame.
type Binding struct {
	Name string
	Slot int
	// Decl is the declaring *template.DefineStatement or
	// *template.ForeachStatement; nil for free names.
	Decl template.Node
}

// Invocation is an invoke statement found in the tree.
type Invocation struct {
	Locator string
	Format  string
	Pos     filepos.Span
}

type Options struct {
	// AllowFreeNames makes unbound non-model references parameters of
	// the template instead of errors. Callers must supply them at
	// invocation time.
	AllowFreeNames bool
}

// ResolvedTree is a template annotated with name bindings. It is
// read-only after Resolve and may be shared by concurrent evaluations.
type ResolvedTree struct {
	Template *template.Template

	Symbols    map[template.Expression]Symbol
	NumSymbols int

	Decls    map[*template.Reference]*Binding
	NumSlots int

	FreeNames   []string
	Invocations []Invocation

	declSlots map[template.Node]int
	loopSlots map[*template.ForeachStatement][]int
	freeNames map[string]*Binding
}

// DeclSlot returns the slot of the binding declared by a define or
// foreach statement.
func (t *ResolvedTree) DeclSlot(decl template.Node) int {
	slot, found := t.declSlots[decl]
	if !found {
		panic(fmt.Sprintf("Expected %T at %s to be a resolved declaration", decl, decl.Pos().AsCompactString()))
	}
	return slot
}

// LoopSlots returns the slots declared by a foreach statement and its
// body; they are cleared between iterations.
func (t *ResolvedTree) LoopSlots(n *template.ForeachStatement) []int {
	return t.loopSlots[n]
}

// FreeName returns the binding of a free name, if the tree has it.
func (t *ResolvedTree) FreeName(name string) (*Binding, bool) {
	b, found := t.freeNames[name]
	return b, found
}

// Resolve binds every expression of tree to a symbol and every
// non-model reference to its declaration. The tree is not modified.
func Resolve(tree *template.Template, opts Options) (*ResolvedTree, error) {
	resolved := &ResolvedTree{
		Template:  tree,
		Symbols:   map[template.Expression]Symbol{},
		Decls:     map[*template.Reference]*Binding{},
		declSlots: map[template.Node]int{},
		loopSlots: map[*template.ForeachStatement][]int{},
		freeNames: map[string]*Binding{},
	}

	_, err := template.Visit[struct{}, *scope](&resolveVisitor{tree: resolved, opts: opts}, tree, nil)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// scope is one frame of the static scope chain.
type scope struct {
	parent *scope
	names  map[string]*Binding
}

func (s *scope) push() *scope {
	return &scope{parent: s, names: map[string]*Binding{}}
}

func (s *scope) lookup(name string) (*Binding, bool) {
	for curr := s; curr != nil; curr = curr.parent {
		if b, found := curr.names[name]; found {
			return b, true
		}
	}
	return nil, false
}

type resolveVisitor struct {
	tree *ResolvedTree
	opts Options
}

var _ template.Visitor[struct{}, *scope] = &resolveVisitor{}

func (v *resolveVisitor) visit(n template.Node, s *scope) error {
	_, err := template.Visit[struct{}, *scope](v, n, s)
	return err
}

func (v *resolveVisitor) visitAll(items []template.Node, s *scope) error {
	for _, item := range items {
		if err := v.visit(item, s); err != nil {
			return err
		}
	}
	return nil
}

// bind assigns the next symbol to e.
func (v *resolveVisitor) bind(e template.Expression) {
	if _, found := v.tree.Symbols[e]; found {
		panic(&BindingError{Kind: DoubleAssignment, Name: template.ExprString(e), Pos: e.Pos()})
	}
	v.tree.Symbols[e] = Symbol(v.tree.NumSymbols)
	v.tree.NumSymbols++
}

func (v *resolveVisitor) declare(s *scope, name string, decl template.Node) {
	b := &Binding{Name: name, Slot: v.tree.NumSlots, Decl: decl}
	v.tree.NumSlots++
	v.tree.declSlots[decl] = b.Slot
	s.names[name] = b
}

func (v *resolveVisitor) VisitTemplate(n *template.Template, s *scope) (struct{}, error) {
	return struct{}{}, v.visitAll(n.Items, s.push())
}

func (v *resolveVisitor) VisitLiteralText(*template.LiteralText, *scope) (struct{}, error) {
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitAttributeValue(n *template.AttributeValue, s *scope) (struct{}, error) {
	return struct{}{}, v.visitAll(n.Items, s.push())
}

func (v *resolveVisitor) VisitConstant(n *template.Constant, _ *scope) (struct{}, error) {
	v.bind(n)
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitReference(n *template.Reference, s *scope) (struct{}, error) {
	v.bind(n)

	if len(n.Path) == 0 {
		return struct{}{}, &BindingError{Kind: InvalidReference, Name: n.String(), Pos: n.Pos()}
	}
	for _, seg := range n.Path {
		if len(seg) == 0 {
			return struct{}{}, &BindingError{Kind: InvalidReference, Name: n.String(), Pos: n.Pos()}
		}
	}

	if n.IsModelRef {
		return struct{}{}, nil
	}

	name := n.Path[0]
	if b, found := s.lookup(name); found {
		v.tree.Decls[n] = b
		return struct{}{}, nil
	}

	if !v.opts.AllowFreeNames {
		return struct{}{}, &BindingError{Kind: Unbound, Name: name, Pos: n.Pos()}
	}

	b, found := v.tree.freeNames[name]
	if !found {
		b = &Binding{Name: name, Slot: v.tree.NumSlots}
		v.tree.NumSlots++
		v.tree.freeNames[name] = b
		v.tree.FreeNames = append(v.tree.FreeNames, name)
	}
	v.tree.Decls[n] = b
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitUnary(n *template.UnaryExpression, s *scope) (struct{}, error) {
	v.bind(n)
	return struct{}{}, v.visit(n.X, s)
}

func (v *resolveVisitor) VisitBinary(n *template.BinaryExpression, s *scope) (struct{}, error) {
	v.bind(n)
	if err := v.visit(n.Left, s); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, v.visit(n.Right, s)
}

func (v *resolveVisitor) VisitFunctionCall(n *template.FunctionCall, s *scope) (struct{}, error) {
	v.bind(n)
	for _, arg := range n.Args {
		if err := v.visit(arg, s); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitList(n *template.ListExpression, s *scope) (struct{}, error) {
	v.bind(n)
	for _, item := range n.Items {
		if err := v.visit(item, s); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitAssign(n *template.AssignStatement, s *scope) (struct{}, error) {
	return struct{}{}, v.visit(n.X, s)
}

func (v *resolveVisitor) VisitDefine(n *template.DefineStatement, s *scope) (struct{}, error) {
	// name is visible only after its own expression
	if err := v.visit(n.X, s); err != nil {
		return struct{}{}, err
	}
	v.declare(s, n.Name, n)
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitIf(n *template.IfStatement, s *scope) (struct{}, error) {
	if err := v.visit(n.Cond, s); err != nil {
		return struct{}{}, err
	}
	if err := v.visit(n.Then, s); err != nil {
		return struct{}{}, err
	}
	if n.Else != nil {
		return struct{}{}, v.visit(n.Else, s)
	}
	return struct{}{}, nil
}

func (v *resolveVisitor) VisitForeach(n *template.ForeachStatement, s *scope) (struct{}, error) {
	if err := v.visit(n.Collection, s); err != nil {
		return struct{}{}, err
	}
	firstSlot := v.tree.NumSlots

	bodyScope := s.push()
	v.declare(bodyScope, n.Var, n)
	if err := v.visit(n.Body, bodyScope); err != nil {
		return struct{}{}, err
	}

	for slot := firstSlot; slot < v.tree.NumSlots; slot++ {
		if !v.isFreeSlot(slot) {
			v.tree.loopSlots[n] = append(v.tree.loopSlots[n], slot)
		}
	}
	return struct{}{}, nil
}

func (v *resolveVisitor) isFreeSlot(slot int) bool {
	for _, b := range v.tree.freeNames {
		if b.Slot == slot {
			return true
		}
	}
	return false
}

func (v *resolveVisitor) VisitInvoke(n *template.InvokeStatement, s *scope) (struct{}, error) {
	v.tree.Invocations = append(v.tree.Invocations, Invocation{Locator: n.Locator, Format: n.Format, Pos: n.Pos()})
	return struct{}{}, v.visitParam(n.Params, s)
}

func (v *resolveVisitor) visitParam(p template.ParameterValue, s *scope) error {
	switch typedParam := p.(type) {
	case *template.PrimitiveParam:
		return v.visit(typedParam.Node, s)
	case *template.ListParam:
		for _, item := range typedParam.Items() {
			if err := v.visitParam(item, s); err != nil {
				return err
			}
		}
	case *template.StructuredParam:
		for _, field := range typedParam.Fields() {
			if err := v.visitParam(field.Value, s); err != nil {
				return err
			}
		}
	}
	return nil
}
