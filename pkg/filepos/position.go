// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"fmt"
)

type Position struct {
	lineNum int // 1 based
	col     int // 1 based, 0 if unknown
	file    string
	known   bool
}

func NewPosition(lineNum int) *Position {
	if lineNum <= 0 {
		panic("Lines are 1 based")
	}
	return &Position{lineNum: lineNum, known: true}
}

// NewPositionAt returns the Position of line "lineNum", column "col" within the file "file"
func NewPositionAt(file string, lineNum, col int) *Position {
	p := NewPosition(lineNum)
	if col < 0 {
		panic("Columns are 1 based")
	}
	p.col = col
	p.file = file
	return p
}

// NewPositionInFile returns the Position of line "lineNum" within the file "file"
func NewPositionInFile(lineNum int, file string) *Position {
	p := NewPosition(lineNum)
	p.file = file
	return p
}

// NewUnknownPosition is equivalent of zero value *Position
func NewUnknownPosition() *Position {
	return &Position{}
}

// NewUnknownPositionInFile produces a Position of a known file at an unknown line.
func NewUnknownPositionInFile(file string) *Position {
	return &Position{file: file}
}

func (p *Position) IsKnown() bool { return p != nil && p.known }

func (p *Position) LineNum() int {
	if !p.IsKnown() {
		panic("Position is unknown")
	}
	return p.lineNum
}

// Col returns the 1 based column or 0 when only the line is known.
func (p *Position) Col() int {
	if p == nil {
		return 0
	}
	return p.col
}

func (p *Position) GetFile() string {
	if p == nil {
		return ""
	}
	return p.file
}

func (p *Position) AsString() string {
	return "line " + p.AsCompactString()
}

func (p *Position) AsCompactString() string {
	filePrefix := p.GetFile()
	if len(filePrefix) > 0 {
		filePrefix += ":"
	}
	if p.IsKnown() {
		if p.col > 0 {
			return fmt.Sprintf("%s%d:%d", filePrefix, p.lineNum, p.col)
		}
		return fmt.Sprintf("%s%d", filePrefix, p.lineNum)
	}
	return fmt.Sprintf("%s?", filePrefix)
}

func (p *Position) As4DigitString() string {
	if p.IsKnown() {
		return fmt.Sprintf("%4d", p.LineNum())
	}
	return "????"
}

func (p *Position) DeepCopy() *Position {
	if p == nil {
		return nil
	}
	newPos := *p
	return &newPos
}

// IsBefore reports whether p is strictly before other in the same file.
// Unknown positions are never before anything.
func (p *Position) IsBefore(other *Position) bool {
	if !p.IsKnown() || !other.IsKnown() || p.file != other.file {
		return false
	}
	if p.lineNum != other.lineNum {
		return p.lineNum < other.lineNum
	}
	return p.col < other.col
}

// Span is the source range covered by a node: Begin is the first
// character, End is the position just after the last one.
type Span struct {
	Begin *Position
	End   *Position
}

func NewSpan(begin, end *Position) Span {
	return Span{Begin: begin, End: end}
}

// UnknownSpan is used for nodes that were not produced from source text.
func UnknownSpan() Span {
	return Span{Begin: NewUnknownPosition(), End: NewUnknownPosition()}
}

func (s Span) IsKnown() bool { return s.Begin.IsKnown() }

func (s Span) AsCompactString() string {
	if !s.End.IsKnown() || s.End.lineNum == s.Begin.LineNumOrZero() && s.End.col == s.Begin.Col() {
		return s.Begin.AsCompactString()
	}
	return fmt.Sprintf("%s-%d:%d", s.Begin.AsCompactString(), s.End.lineNum, s.End.col)
}

// LineNumOrZero is LineNum without the panic for unknown positions.
func (p *Position) LineNumOrZero() int {
	if !p.IsKnown() {
		return 0
	}
	return p.lineNum
}
