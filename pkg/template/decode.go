// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"
)

// InvalidEscapeSequenceError is returned when a string literal contains
// a backslash sequence that is not one of \n \r \b \f \t \' \\ \" \DDD.
type InvalidEscapeSequenceError struct {
	Sequence string
	Offset   int
}

func (e *InvalidEscapeSequenceError) Error() string {
	return fmt.Sprintf("invalid escape sequence '%s' at offset %d", e.Sequence, e.Offset)
}

var simpleEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 'b': '\b', 'f': '\f', 't': '\t',
	'\'': '\'', '\\': '\\', '"': '"',
}

// Decode resolves escape sequences of a string literal body.
// \DDD is exactly three octal digits with the first in 0-3.
func Decode(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", &InvalidEscapeSequenceError{Sequence: `\`, Offset: i}
		}
		next := s[i+1]
		if decoded, found := simpleEscapes[next]; found {
			sb.WriteByte(decoded)
			i++
			continue
		}
		if i+3 < len(s) && isOctal(next, '3') && isOctal(s[i+2], '7') && isOctal(s[i+3], '7') {
			code := rune(next-'0')<<6 | rune(s[i+2]-'0')<<3 | rune(s[i+3]-'0')
			sb.WriteRune(code)
			i += 3
			continue
		}
		end := i + 2
		if end > len(s) {
			end = len(s)
		}
		return "", &InvalidEscapeSequenceError{Sequence: s[i:end], Offset: i}
	}

	return sb.String(), nil
}

// DecodeNullable is Decode for optional literals; nil decodes to nil.
func DecodeNullable(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	decoded, err := Decode(*s)
	if err != nil {
		return nil, err
	}
	return &decoded, nil
}

func isOctal(c byte, max byte) bool { return c >= '0' && c <= max }

var simpleEncodes = map[rune]string{
	'\n': `\n`, '\r': `\r`, '\b': `\b`, '\f': `\f`, '\t': `\t`,
	'\'': `\'`, '\\': `\\`, '"': `\"`,
}

// Encode is the inverse of Decode: Decode(Encode(s)) == s.
// Other control characters below 0x20 are written as \DDD.
func Encode(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if enc, found := simpleEncodes[r]; found {
			sb.WriteString(enc)
			continue
		}
		if r < 0x20 {
			fmt.Fprintf(&sb, `\%03o`, r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
