// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"

	"carvel.dev/mtpl/pkg/filepos"
)

type TokenKind int

const (
	TokenEOF TokenKind = iota

	TokenText    // raw text outside script mode
	TokenComment // <%-- ... --%>

	TokenScriptOpen  // <%
	TokenAssignOpen  // <%=
	TokenScriptClose // %>
	TokenInterpOpen  // ${
	TokenInterpClose // } closing ${
	TokenBodyOpen    // { opening a text body
	TokenBodyClose   // } closing a text body
	TokenAttrOpen    // start of a quoted markup attribute value
	TokenAttrClose   // end of a quoted markup attribute value

	TokenIdent
	TokenString // Text holds the undecoded literal body
	TokenNumber

	TokenIf
	TokenElseif
	TokenElse
	TokenForeach
	TokenIn
	TokenAs
	TokenDef
	TokenInvoke
	TokenTrue
	TokenFalse

	TokenEQ     // ==
	TokenNE     // !=
	TokenGE     // >=
	TokenLE     // <=
	TokenGT     // >
	TokenLT     // <
	TokenAndAnd // &&
	TokenOrOr   // ||
	TokenNot    // !
	TokenAssign // =

	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenColon
	TokenDollar
	TokenHash
)

var keywords = map[string]TokenKind{
	"if":      TokenIf,
	"elseif":  TokenElseif,
	"else":    TokenElse,
	"foreach": TokenForeach,
	"in":      TokenIn,
	"as":      TokenAs,
	"def":     TokenDef,
	"invoke":  TokenInvoke,
	"true":    TokenTrue,
	"false":   TokenFalse,
}

var tokenKindNames = map[TokenKind]string{
	TokenEOF:         "end of input",
	TokenText:        "text",
	TokenComment:     "comment",
	TokenScriptOpen:  "'<%'",
	TokenAssignOpen:  "'<%='",
	TokenScriptClose: "'%>'",
	TokenInterpOpen:  "'${'",
	TokenInterpClose: "'}'",
	TokenBodyOpen:    "'{'",
	TokenBodyClose:   "'}'",
	TokenAttrOpen:    "attribute value start",
	TokenAttrClose:   "attribute value end",
	TokenIdent:       "identifier",
	TokenString:      "string",
	TokenNumber:      "number",
	TokenEQ:          "'=='",
	TokenNE:          "'!='",
	TokenGE:          "'>='",
	TokenLE:          "'<='",
	TokenGT:          "'>'",
	TokenLT:          "'<'",
	TokenAndAnd:      "'&&'",
	TokenOrOr:        "'||'",
	TokenNot:         "'!'",
	TokenAssign:      "'='",
	TokenLParen:      "'('",
	TokenRParen:      "')'",
	TokenLBrace:      "'{'",
	TokenRBrace:      "'}'",
	TokenLBracket:    "'['",
	TokenRBracket:    "']'",
	TokenSemicolon:   "';'",
	TokenComma:       "','",
	TokenDot:         "'.'",
	TokenColon:       "':'",
	TokenDollar:      "'$'",
	TokenHash:        "'#'",
}

func (k TokenKind) String() string {
	if name, found := tokenKindNames[k]; found {
		return name
	}
	for word, kind := range keywords {
		if kind == k {
			return "'" + word + "'"
		}
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexical unit with the source range it was scanned from.
type Token struct {
	Kind TokenKind
	Text string
	Span filepos.Span
}

func (t Token) String() string {
	switch t.Kind {
	case TokenIdent, TokenNumber:
		return fmt.Sprintf("%s '%s'", t.Kind, t.Text)
	case TokenString:
		return fmt.Sprintf("string \"%s\"", t.Text)
	default:
		return t.Kind.String()
	}
}
