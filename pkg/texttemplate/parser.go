// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"errors"
	"strconv"
	"strings"

	"carvel.dev/mtpl/pkg/filepos"
	"carvel.dev/mtpl/pkg/template"
)

// Parser builds a template.Template from source. A Parser is not safe
// for concurrent use; create one per parse.
type Parser struct {
	associatedName string

	tokens []Token
	i      int
	prev   Token
}

func NewParser() *Parser {
	return &Parser{}
}

// Parse parses source that starts in text mode.
func (p *Parser) Parse(dataBs []byte, associatedName string) (*template.Template, error) {
	return p.parse(dataBs, associatedName, false)
}

// ParseScript parses source that starts in script mode, i.e. a list of
// statements without surrounding '<%' and '%>'.
func (p *Parser) ParseScript(dataBs []byte, associatedName string) (*template.Template, error) {
	return p.parse(dataBs, associatedName, true)
}

func (p *Parser) parse(dataBs []byte, associatedName string, script bool) (*template.Template, error) {
	p.associatedName = associatedName
	p.i = 0

	tokens, err := NewScanner(string(dataBs), associatedName).Tokenize(script)
	if err != nil {
		return nil, err
	}
	p.tokens = tokens

	var items []template.Node
	if script {
		items, err = p.parseStatements(TokenEOF)
	} else {
		items, err = p.parseItems(TokenEOF)
	}
	if err != nil {
		return nil, err
	}

	eof, err := p.expect(TokenEOF)
	if err != nil {
		return nil, err
	}

	begin := filepos.NewPositionAt(associatedName, 1, 1)
	return &template.Template{Span: filepos.NewSpan(begin, eof.Span.End), Items: mergeText(items)}, nil
}

func (p *Parser) peek() Token { return p.tokens[p.i] }

func (p *Parser) peekAt(n int) Token {
	if p.i+n < len(p.tokens) {
		return p.tokens[p.i+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.i]
	if tok.Kind != TokenEOF {
		p.i++
	}
	p.prev = tok
	return tok
}

func (p *Parser) accept(kind TokenKind) bool {
	if p.peek().Kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, NewSyntaxError(tok.Span, "Expected %s but found %s", kind, tok)
	}
	return p.next(), nil
}

// spanFrom covers everything from the start of tok to the last consumed token.
func (p *Parser) spanFrom(tok Token) filepos.Span {
	return filepos.NewSpan(tok.Span.Begin, p.prev.Span.End)
}

// parseItems parses text-mode content until the end token (not consumed).
func (p *Parser) parseItems(end TokenKind) ([]template.Node, error) {
	var items []template.Node

	for {
		tok := p.peek()
		if tok.Kind == end {
			return items, nil
		}

		switch tok.Kind {
		case TokenEOF:
			return nil, NewSyntaxError(tok.Span, "Expected %s but found %s", end, tok)

		case TokenText:
			p.next()
			items = append(items, &template.LiteralText{Span: tok.Span, Text: tok.Text})

		case TokenComment:
			p.next()

		case TokenAssignOpen:
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenScriptClose); err != nil {
				return nil, err
			}
			items = append(items, &template.AssignStatement{Span: p.spanFrom(tok), X: x})

		case TokenScriptOpen:
			p.next()
			stmts, err := p.parseStatements(TokenScriptClose)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenScriptClose); err != nil {
				return nil, err
			}
			items = append(items, stmts...)

		case TokenDollar:
			ref, err := p.parseModelRef()
			if err != nil {
				return nil, err
			}
			items = append(items, &template.AssignStatement{Span: ref.Span, X: ref})

		case TokenInterpOpen:
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenInterpClose); err != nil {
				return nil, err
			}
			items = append(items, &template.AssignStatement{Span: p.spanFrom(tok), X: x})

		case TokenAttrOpen:
			p.next()
			content, err := p.parseItems(TokenAttrClose)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenAttrClose); err != nil {
				return nil, err
			}
			if isLiteralOnly(content) {
				items = append(items, content...)
			} else {
				items = append(items, &template.AttributeValue{Span: p.spanFrom(tok), Items: mergeText(content)})
			}

		default:
			return nil, NewSyntaxError(tok.Span, "Unexpected %s", tok)
		}
	}
}

// parseStatements parses script-mode statements until the end token (not consumed).
func (p *Parser) parseStatements(end TokenKind) ([]template.Node, error) {
	var stmts []template.Node

	for {
		tok := p.peek()
		switch tok.Kind {
		case end:
			return stmts, nil
		case TokenSemicolon:
			p.next()
			continue
		case TokenEOF:
			return nil, NewSyntaxError(tok.Span, "Expected %s but found %s", end, tok)
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *Parser) parseStatement() (template.Statement, error) {
	first := p.peek()

	var attrs map[string]string
	if first.Kind == TokenLBracket {
		var err error
		attrs, err = p.parseAttrs()
		if err != nil {
			return nil, err
		}
	}

	tok := p.peek()
	switch tok.Kind {
	case TokenDef:
		p.next()
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &template.DefineStatement{Span: p.spanFrom(first), Attrs: attrs, Name: name.Text, X: x}, nil

	case TokenIf:
		return p.parseIf(first, attrs)

	case TokenForeach:
		return p.parseForeach(first, attrs)

	case TokenInvoke:
		return p.parseInvoke(first, attrs)

	case TokenAssign:
		p.next()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &template.AssignStatement{Span: p.spanFrom(first), Attrs: attrs, X: x}, nil

	default:
		return nil, NewSyntaxError(tok.Span, "Expected statement but found %s", tok)
	}
}

// parseAttrs parses '[name="value", ...]'.
func (p *Parser) parseAttrs() (map[string]string, error) {
	open, err := p.expect(TokenLBracket)
	if err != nil {
		return nil, err
	}

	attrs := map[string]string{}
	for p.peek().Kind != TokenRBracket {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}
		val, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, found := attrs[name.Text]; found {
			return nil, NewSyntaxError(name.Span, "Duplicate attribute '%s'", name.Text)
		}
		attrs[name.Text] = val
		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRBracket); err != nil {
		return nil, NewSyntaxError(open.Span, "Missing closing ']' of attribute list")
	}
	return attrs, nil
}

func (p *Parser) parseIf(first Token, attrs map[string]string) (*template.IfStatement, error) {
	p.next() // 'if' or 'elseif'

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	stmt := &template.IfStatement{Attrs: attrs, Cond: cond, Then: then}

	switch p.peek().Kind {
	case TokenElseif:
		elseIf, err := p.parseIf(p.peek(), nil)
		if err != nil {
			return nil, err
		}
		stmt.Else = elseIf
	case TokenElse:
		p.next()
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		stmt.Else = body
	}

	stmt.Span = p.spanFrom(first)
	return stmt, nil
}

func (p *Parser) parseForeach(first Token, attrs map[string]string) (*template.ForeachStatement, error) {
	p.next()
	p.accept(TokenDollar)

	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	coll, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	stmt := &template.ForeachStatement{Attrs: attrs, Var: name.Text, Collection: coll}
	if p.accept(TokenAs) {
		alias, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		stmt.Label = name.Text
		stmt.Var = alias.Text
	}

	stmt.Body, err = p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt.Span = p.spanFrom(first)
	return stmt, nil
}

func (p *Parser) parseInvoke(first Token, attrs map[string]string) (*template.InvokeStatement, error) {
	p.next()

	locator, err := p.parseString()
	if err != nil {
		return nil, err
	}

	stmt := &template.InvokeStatement{Attrs: attrs, Locator: locator}
	if p.accept(TokenHash) {
		format, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		stmt.Format = format.Text
	}

	open, err := p.expect(TokenLParen)
	if err != nil {
		return nil, err
	}
	fields, err := p.parseParamFields(TokenRParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	stmt.Params, err = template.NewStructuredParam(p.spanFrom(open), fields)
	if err != nil {
		return nil, NewSyntaxError(p.spanFrom(open), "Invalid invocation parameters: %s", err)
	}
	stmt.Span = p.spanFrom(first)
	return stmt, nil
}

// parseParamFields parses 'name: value, ...' up to the end token (not consumed).
func (p *Parser) parseParamFields(end TokenKind) ([]template.ParamField, error) {
	var fields []template.ParamField
	for p.peek().Kind != end {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseParamValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, template.ParamField{Name: name.Text, Value: val})
		if !p.accept(TokenComma) {
			break
		}
	}
	return fields, nil
}

func (p *Parser) parseParamValue() (template.ParameterValue, error) {
	first := p.peek()

	switch first.Kind {
	case TokenLBracket:
		p.next()
		var items []template.ParameterValue
		for p.peek().Kind != TokenRBracket {
			item, err := p.parseParamValue()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.accept(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		list, err := template.NewListParam(p.spanFrom(first), items)
		if err != nil {
			return nil, NewSyntaxError(p.spanFrom(first), "Invalid parameter: %s", err)
		}
		return list, nil

	case TokenLBrace:
		p.next()
		fields, err := p.parseParamFields(TokenRBrace)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBrace); err != nil {
			return nil, err
		}
		structured, err := template.NewStructuredParam(p.spanFrom(first), fields)
		if err != nil {
			return nil, NewSyntaxError(p.spanFrom(first), "Invalid parameter: %s", err)
		}
		return structured, nil

	default:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return template.NewPrimitiveParam(x), nil
	}
}

// parseBody parses a '{ ... }' text body. Whitespace at both ends of
// the body is not part of the output.
func (p *Parser) parseBody() (*template.Template, error) {
	open, err := p.expect(TokenBodyOpen)
	if err != nil {
		return nil, err
	}
	items, err := p.parseItems(TokenBodyClose)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenBodyClose); err != nil {
		return nil, err
	}
	return &template.Template{Span: p.spanFrom(open), Items: trimBody(mergeText(items))}, nil
}

func (p *Parser) parseExpr() (template.Expression, error) {
	return p.parseBinary(0)
}

var precedence = [][]struct {
	kind TokenKind
	op   template.BinaryOp
}{
	{{TokenOrOr, template.OpOr}},
	{{TokenAndAnd, template.OpAnd}},
	{{TokenEQ, template.OpEQ}, {TokenNE, template.OpNE}},
	{{TokenGE, template.OpGE}, {TokenLE, template.OpLE}, {TokenGT, template.OpGT}, {TokenLT, template.OpLT}},
}

// parseBinary parses left-associative operators of the given
// precedence level and above.
func (p *Parser) parseBinary(level int) (template.Expression, error) {
	if level == len(precedence) {
		return p.parseUnary()
	}

	first := p.peek()
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		op, found := binaryOpAt(level, p.peek().Kind)
		if !found {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &template.BinaryExpression{Span: p.spanFrom(first), Left: left, Op: op, Right: right}
	}
}

func binaryOpAt(level int, kind TokenKind) (template.BinaryOp, bool) {
	for _, candidate := range precedence[level] {
		if candidate.kind == kind {
			return candidate.op, true
		}
	}
	return 0, false
}

func (p *Parser) parseUnary() (template.Expression, error) {
	first := p.peek()
	if p.accept(TokenNot) {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &template.UnaryExpression{Span: p.spanFrom(first), Op: template.OpNot, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (template.Expression, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenString:
		val, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return template.NewStringConstant(tok.Span, val), nil

	case TokenNumber:
		p.next()
		num, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, NewSyntaxError(tok.Span, "Invalid number '%s'", tok.Text)
		}
		return template.NewNumberConstant(tok.Span, num), nil

	case TokenTrue, TokenFalse:
		p.next()
		return template.NewBoolConstant(tok.Span, tok.Kind == TokenTrue), nil

	case TokenLParen:
		p.next()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return x, nil

	case TokenLBracket:
		p.next()
		list := &template.ListExpression{}
		for p.peek().Kind != TokenRBracket {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
			if !p.accept(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		list.Span = p.spanFrom(tok)
		return list, nil

	case TokenDollar:
		return p.parseModelRef()

	case TokenIdent:
		if p.peekAt(1).Kind == TokenLParen {
			return p.parseCall()
		}
		p.next()
		ref := &template.Reference{Path: []string{tok.Text}}
		if err := p.parsePathSegments(ref); err != nil {
			return nil, err
		}
		ref.Span = p.spanFrom(tok)
		return ref, nil

	default:
		return nil, NewSyntaxError(tok.Span, "Expected expression but found %s", tok)
	}
}

func (p *Parser) parseCall() (*template.FunctionCall, error) {
	name := p.next()
	p.next() // '('

	call := &template.FunctionCall{Name: name.Text}
	for p.peek().Kind != TokenRParen {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	call.Span = p.spanFrom(name)
	return call, nil
}

// parseModelRef parses '$name', '$ns:name' with optional '.segment' accessors.
func (p *Parser) parseModelRef() (*template.Reference, error) {
	dollar, err := p.expect(TokenDollar)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}

	ref := &template.Reference{IsModelRef: true, Path: []string{name.Text}}
	if p.peek().Kind == TokenColon && p.peekAt(1).Kind == TokenIdent {
		p.next()
		ref.Namespace = name.Text
		ref.Path = []string{p.next().Text}
	}
	if err := p.parsePathSegments(ref); err != nil {
		return nil, err
	}
	ref.Span = p.spanFrom(dollar)
	return ref, nil
}

func (p *Parser) parsePathSegments(ref *template.Reference) error {
	for p.peek().Kind == TokenDot {
		p.next()
		seg := p.next()
		if seg.Kind != TokenIdent && seg.Kind != TokenNumber && !isKeyword(seg) {
			return NewSyntaxError(seg.Span, "Expected member name but found %s", seg)
		}
		ref.Path = append(ref.Path, seg.Text)
	}
	return nil
}

func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(TokenString)
	if err != nil {
		return "", err
	}
	val, err := template.Decode(tok.Text)
	if err != nil {
		var escErr *template.InvalidEscapeSequenceError
		if errors.As(err, &escErr) {
			return "", &SyntaxError{Span: tok.Span, Msg: escErr.Error(), Err: escErr}
		}
		return "", err
	}
	return val, nil
}

func isKeyword(tok Token) bool {
	kind, found := keywords[tok.Text]
	return found && kind == tok.Kind
}

func isLiteralOnly(items []template.Node) bool {
	for _, item := range items {
		if _, ok := item.(*template.LiteralText); !ok {
			return false
		}
	}
	return true
}

// mergeText joins adjacent literal text nodes.
func mergeText(items []template.Node) []template.Node {
	var result []template.Node
	for _, item := range items {
		text, isText := item.(*template.LiteralText)
		if isText && len(result) > 0 {
			if last, lastIsText := result[len(result)-1].(*template.LiteralText); lastIsText {
				result[len(result)-1] = &template.LiteralText{
					Span: filepos.NewSpan(last.Span.Begin, text.Span.End),
					Text: last.Text + text.Text,
				}
				continue
			}
		}
		result = append(result, item)
	}
	return result
}

func trimBody(items []template.Node) []template.Node {
	if len(items) > 0 {
		if text, ok := items[0].(*template.LiteralText); ok {
			items[0] = &template.LiteralText{Span: text.Span, Text: strings.TrimLeft(text.Text, " \t\r\n")}
		}
		last := len(items) - 1
		if text, ok := items[last].(*template.LiteralText); ok {
			items[last] = &template.LiteralText{Span: text.Span, Text: strings.TrimRight(text.Text, " \t\r\n")}
		}
	}

	var result []template.Node
	for _, item := range items {
		if text, ok := item.(*template.LiteralText); ok && len(text.Text) == 0 {
			continue
		}
		result = append(result, item)
	}
	return result
}
