// Package parser implements the thin token-consuming collaborator the
// compiler package drives directly: no separate AST, just next/peek/
// skip primitives over a pre-scanned token stream plus the error-
// reporting family the driver needs to annotate failures with
// filename+line.
//
// Grounded on the teacher's internal/parser package for the overall
// shape of a hand-rolled recursive-descent helper, but this language's
// compiler is single-pass (it emits bytecode while parsing, per the
// codegen package), so there is no ast.go/stmt.go AST here to mirror —
// only the token-stream primitives the driver needs.
package parser

import (
	"shannon/internal/errors"
	"shannon/internal/lexer"
)

// Parser wraps a pre-scanned token stream with a one-token lookahead
// and exposes the literal payload of whichever token was last consumed
// (strValue/intValue/largeValue), matching the interface the compiler
// package expects.
type Parser struct {
	toks     []lexer.Token
	pos      int
	FileName string

	StrValue   string
	IntValue   int64
	LargeValue int64
	LineNum    int
}

func New(src, fileName string) (*Parser, error) {
	sc := lexer.NewScanner(src, fileName)
	toks, err := sc.ScanAll()
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, errors.Parserf(errors.Location{File: le.File, Line: le.Line}, "%s", le.Msg)
		}
		return nil, errors.Systemf(fileName, err)
	}
	return &Parser{toks: toks, FileName: fileName}, nil
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

// Peek returns the current token's type without consuming it.
func (p *Parser) Peek() lexer.TokenType { return p.cur().Type }

// PeekIdentText returns the StrValue of the current token without
// consuming it (meaningful only when Peek() == lexer.Ident).
func (p *Parser) PeekIdentText() string { return p.cur().StrValue }

// PeekN returns the type of the token n positions ahead (0 == Peek).
func (p *Parser) PeekN(n int) lexer.TokenType {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[idx].Type
}

// Next consumes and returns the current token, populating StrValue/
// IntValue/LargeValue/LineNum from it.
func (p *Parser) Next() lexer.Token {
	t := p.cur()
	p.StrValue, p.IntValue, p.LargeValue, p.LineNum = t.StrValue, t.IntValue, t.LargeValue, t.Line
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// SkipIf consumes the current token and returns true if it matches tt,
// otherwise leaves the stream untouched and returns false.
func (p *Parser) SkipIf(tt lexer.TokenType) bool {
	if p.Peek() == tt {
		p.Next()
		return true
	}
	return false
}

// Skip consumes the current token, requiring it to be tt; msg names
// the construct being parsed for the error message on mismatch.
func (p *Parser) Skip(tt lexer.TokenType, msg string) error {
	if p.Peek() != tt {
		return p.Errorf("expected %s %s, found %s", tt, msg, p.Peek())
	}
	p.Next()
	return nil
}

// SkipSep consumes one or more statement separators (SEP or `;`),
// requiring at least one unless the stream is at EOF or END.
func (p *Parser) SkipSep() error {
	if p.Peek() == lexer.EOF || p.Peek() == lexer.End {
		return nil
	}
	if p.Peek() != lexer.Sep && p.Peek() != lexer.Semi {
		return p.Errorf("expected end of statement, found %s", p.Peek())
	}
	for p.Peek() == lexer.Sep || p.Peek() == lexer.Semi {
		p.Next()
	}
	return nil
}

// SkipBlankSeps discards any run of separators without requiring one,
// used between optional constructs.
func (p *Parser) SkipBlankSeps() {
	for p.Peek() == lexer.Sep || p.Peek() == lexer.Semi {
		p.Next()
	}
}

// GetIdent consumes an identifier token and returns its text, or
// errors if the current token isn't one.
func (p *Parser) GetIdent() (string, error) {
	if p.Peek() != lexer.Ident {
		return "", p.Errorf("expected identifier, found %s", p.Peek())
	}
	t := p.Next()
	return t.StrValue, nil
}

// Errorf builds a Parser-kind error at the current line.
func (p *Parser) Errorf(format string, args ...interface{}) error {
	return errors.Parserf(errors.Location{File: p.FileName, Line: p.cur().Line}, format, args...)
}

// ErrorAt builds a Parser-kind error at an explicit line, used when
// reporting against a token already consumed.
func (p *Parser) ErrorAt(line int, format string, args ...interface{}) error {
	return errors.Parserf(errors.Location{File: p.FileName, Line: line}, format, args...)
}
