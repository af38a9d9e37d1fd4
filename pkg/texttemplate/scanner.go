// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"strings"
	"unicode/utf8"

	"carvel.dev/mtpl/pkg/filepos"
)

type scanMode int

const (
	modeText   scanMode = iota // top-level text
	modeBody                   // text between '{' and '}' of a statement
	modeScript                 // between '<%' and '%>' (or whole input for ParseScript)
	modeInterp                 // between '${' and '}'
)

type scanFrame struct {
	mode scanMode

	// script/interp: nesting of ( [ and { inside expressions and parameters
	nest int
	// script: whether '%>' terminates this frame
	closable bool

	// text/body: literal '{' nesting, and markup tag tracking
	braces    int
	inTag     bool
	attrQuote byte
}

// Scanner turns template source into a token stream. Mode switches
// (text, script, body, interpolation) are purely lexical.
type Scanner struct {
	src  string
	file string

	off  int
	line int
	col  int

	frames []*scanFrame
	tokens []Token
	last   TokenKind

	text      strings.Builder
	textBegin *filepos.Position
}

func NewScanner(src, file string) *Scanner {
	return &Scanner{src: src, file: file, line: 1, col: 1}
}

// Tokenize scans the whole input. When script is true the input starts
// in script mode (a statement list) instead of text mode.
func (s *Scanner) Tokenize(script bool) ([]Token, error) {
	if script {
		s.frames = []*scanFrame{{mode: modeScript}}
	} else {
		s.frames = []*scanFrame{{mode: modeText}}
	}

	for {
		frame := s.frames[len(s.frames)-1]
		var err error
		switch frame.mode {
		case modeText, modeBody:
			err = s.scanText(frame)
		case modeScript, modeInterp:
			err = s.scanScript(frame)
		}
		if err != nil {
			return nil, err
		}
		if s.off >= len(s.src) && s.last == TokenEOF && len(s.tokens) > 0 {
			return s.tokens, nil
		}
	}
}

func (s *Scanner) pos() *filepos.Position {
	return filepos.NewPositionAt(s.file, s.line, s.col)
}

func (s *Scanner) advance(n int) {
	for _, r := range s.src[s.off : s.off+n] {
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
	s.off += n
}

func (s *Scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.src[s.off:], prefix)
}

func (s *Scanner) peekByte(i int) byte {
	if s.off+i < len(s.src) {
		return s.src[s.off+i]
	}
	return 0
}

func (s *Scanner) emit(kind TokenKind, text string, begin *filepos.Position) {
	s.tokens = append(s.tokens, Token{Kind: kind, Text: text, Span: filepos.NewSpan(begin, s.pos())})
	s.last = kind
}

// emitFixed consumes len(lexeme) bytes and emits a token for them.
func (s *Scanner) emitFixed(kind TokenKind, lexeme string) {
	begin := s.pos()
	s.advance(len(lexeme))
	s.emit(kind, lexeme, begin)
}

func (s *Scanner) push(frame *scanFrame) { s.frames = append(s.frames, frame) }
func (s *Scanner) pop()                  { s.frames = s.frames[:len(s.frames)-1] }

func (s *Scanner) appendText(str string) {
	if s.text.Len() == 0 && s.textBegin == nil {
		s.textBegin = s.pos()
	}
	s.text.WriteString(str)
}

func (s *Scanner) flushText() {
	if s.textBegin != nil {
		if s.text.Len() > 0 {
			s.emit(TokenText, s.text.String(), s.textBegin)
		}
		s.text.Reset()
		s.textBegin = nil
	}
}

func (s *Scanner) scanText(frame *scanFrame) error {
	for s.off < len(s.src) {
		switch {
		case s.hasPrefix("<%--"):
			s.flushText()
			begin := s.pos()
			end := strings.Index(s.src[s.off+4:], "--%>")
			if end < 0 {
				return NewSyntaxError(filepos.NewSpan(begin, begin), "Missing comment closing '--%%>'")
			}
			content := s.src[s.off+4 : s.off+4+end]
			s.advance(4 + end + 4)
			s.emit(TokenComment, content, begin)
			continue

		case s.hasPrefix("<%="):
			s.flushText()
			s.emitFixed(TokenAssignOpen, "<%=")
			s.push(&scanFrame{mode: modeScript, closable: true})
			return nil

		case s.hasPrefix("<%"):
			s.flushText()
			s.emitFixed(TokenScriptOpen, "<%")
			s.push(&scanFrame{mode: modeScript, closable: true})
			return nil
		}

		c := s.src[s.off]

		if c == '$' {
			next := s.peekByte(1)
			switch {
			case next == '$':
				s.appendText("$")
				s.advance(2)
				continue
			case next == '{':
				s.flushText()
				s.emitFixed(TokenInterpOpen, "${")
				s.push(&scanFrame{mode: modeInterp})
				return nil
			case isIdentStart(next):
				s.flushText()
				s.emitFixed(TokenDollar, "$")
				s.scanInlineRef()
				continue
			}
		}

		if frame.attrQuote != 0 && c == frame.attrQuote {
			s.flushText()
			s.emit(TokenAttrClose, "", s.pos())
			frame.attrQuote = 0
			s.appendText(string(c))
			s.advance(1)
			continue
		}

		if frame.inTag && frame.attrQuote == 0 {
			switch c {
			case '>':
				frame.inTag = false
			case '=':
				if quote, n := s.attrValueStart(); quote != 0 {
					s.appendText(s.src[s.off : s.off+n])
					s.advance(n)
					s.flushText()
					s.emit(TokenAttrOpen, "", s.pos())
					frame.attrQuote = quote
					continue
				}
			}
		} else if !frame.inTag && frame.attrQuote == 0 && c == '<' && isLetter(s.peekByte(1)) {
			frame.inTag = true
		}

		if frame.mode == modeBody {
			switch c {
			case '{':
				frame.braces++
			case '}':
				if frame.braces == 0 {
					s.flushText()
					s.emitFixed(TokenBodyClose, "}")
					s.pop()
					return nil
				}
				frame.braces--
			}
		}

		_, size := utf8.DecodeRuneInString(s.src[s.off:])
		s.appendText(s.src[s.off : s.off+size])
		s.advance(size)
	}

	s.flushText()
	s.emit(TokenEOF, "", s.pos())
	return nil
}

// attrValueStart checks for '=', optional spaces and a quote at the
// current offset. Returns the quote and the number of bytes up to and
// including it.
func (s *Scanner) attrValueStart() (byte, int) {
	i := 1
	for s.peekByte(i) == ' ' || s.peekByte(i) == '\t' {
		i++
	}
	switch q := s.peekByte(i); q {
	case '"', '\'':
		return q, i + 1
	}
	return 0, 0
}

// scanInlineRef scans the remainder of a text-mode model reference:
// name, an optional ':name' namespace form and '.segment' accessors.
// A '.' not followed by a segment stays in the text.
func (s *Scanner) scanInlineRef() {
	s.scanIdent()
	if s.peekByte(0) == ':' && isIdentStart(s.peekByte(1)) {
		s.emitFixed(TokenColon, ":")
		s.scanIdent()
	}
	for s.peekByte(0) == '.' {
		next := s.peekByte(1)
		switch {
		case isIdentStart(next):
			s.emitFixed(TokenDot, ".")
			s.scanIdent()
		case isDigit(next):
			s.emitFixed(TokenDot, ".")
			s.scanDigits()
		default:
			return
		}
	}
}

func (s *Scanner) scanIdent() {
	begin := s.pos()
	start := s.off
	n := 0
	for isIdentPart(s.peekByte(n)) {
		n++
	}
	s.advance(n)
	word := s.src[start:s.off]
	if kind, found := keywords[word]; found {
		s.emit(kind, word, begin)
		return
	}
	s.emit(TokenIdent, word, begin)
}

func (s *Scanner) scanDigits() {
	begin := s.pos()
	start := s.off
	n := 0
	for isDigit(s.peekByte(n)) {
		n++
	}
	s.advance(n)
	s.emit(TokenNumber, s.src[start:s.off], begin)
}

var twoCharOps = map[string]TokenKind{
	"==": TokenEQ, "!=": TokenNE, ">=": TokenGE, "<=": TokenLE, "&&": TokenAndAnd, "||": TokenOrOr,
}

var oneCharOps = map[byte]TokenKind{
	'>': TokenGT, '<': TokenLT, '!': TokenNot, '=': TokenAssign, ';': TokenSemicolon,
	',': TokenComma, '.': TokenDot, ':': TokenColon, '$': TokenDollar, '#': TokenHash,
}

func (s *Scanner) scanScript(frame *scanFrame) error {
	for s.off < len(s.src) && isSpace(s.src[s.off]) {
		s.advance(1)
	}

	if s.off >= len(s.src) {
		s.emit(TokenEOF, "", s.pos())
		return nil
	}

	if s.hasPrefix("%>") {
		if frame.mode != modeScript || !frame.closable {
			return NewSyntaxError(filepos.NewSpan(s.pos(), s.pos()), "Unexpected code closing '%%>'")
		}
		s.emitFixed(TokenScriptClose, "%>")
		s.pop()
		return nil
	}

	c := s.src[s.off]

	switch {
	case c == '{':
		if frame.nest == 0 && frame.mode == modeScript {
			s.emitFixed(TokenBodyOpen, "{")
			s.push(&scanFrame{mode: modeBody})
			return nil
		}
		frame.nest++
		s.emitFixed(TokenLBrace, "{")

	case c == '}':
		if frame.nest == 0 && frame.mode == modeInterp {
			s.emitFixed(TokenInterpClose, "}")
			s.pop()
			return nil
		}
		if frame.nest > 0 {
			frame.nest--
		}
		s.emitFixed(TokenRBrace, "}")

	case c == '(' || c == '[':
		frame.nest++
		if c == '(' {
			s.emitFixed(TokenLParen, "(")
		} else {
			s.emitFixed(TokenLBracket, "[")
		}

	case c == ')' || c == ']':
		if frame.nest > 0 {
			frame.nest--
		}
		if c == ')' {
			s.emitFixed(TokenRParen, ")")
		} else {
			s.emitFixed(TokenRBracket, "]")
		}

	case c == '"' || c == '\'':
		return s.scanString(c)

	case isDigit(c):
		if s.last == TokenDot {
			s.scanDigits()
		} else {
			s.scanNumber()
		}

	case isIdentStart(c):
		s.scanIdent()

	default:
		if len(s.src)-s.off >= 2 {
			if kind, found := twoCharOps[s.src[s.off:s.off+2]]; found {
				s.emitFixed(kind, s.src[s.off:s.off+2])
				return nil
			}
		}
		if kind, found := oneCharOps[c]; found {
			s.emitFixed(kind, string(c))
			return nil
		}
		r, _ := utf8.DecodeRuneInString(s.src[s.off:])
		return NewSyntaxError(filepos.NewSpan(s.pos(), s.pos()), "Unexpected character '%c'", r)
	}
	return nil
}

func (s *Scanner) scanNumber() {
	begin := s.pos()
	start := s.off
	n := 0
	for isDigit(s.peekByte(n)) {
		n++
	}
	if s.peekByte(n) == '.' && isDigit(s.peekByte(n+1)) {
		n++
		for isDigit(s.peekByte(n)) {
			n++
		}
	}
	s.advance(n)
	s.emit(TokenNumber, s.src[start:s.off], begin)
}

func (s *Scanner) scanString(quote byte) error {
	begin := s.pos()
	i := 1
	for {
		c := s.peekByte(i)
		switch {
		case s.off+i >= len(s.src) || c == '\n':
			return NewSyntaxError(filepos.NewSpan(begin, begin), "Missing closing quote of string literal")
		case c == '\\':
			i += 2
			continue
		case c == quote:
			body := s.src[s.off+1 : s.off+i]
			s.advance(i + 1)
			s.emit(TokenString, body, begin)
			return nil
		}
		i++
	}
}

func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isLetter(c byte) bool     { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentStart(c byte) bool { return isLetter(c) || c == '_' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
