package parser

import (
	"testing"

	"shannon/internal/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScansSource(t *testing.T) {
	p, err := New("module t\nconst x = 1\n", "t.sh")
	require.NoError(t, err)
	assert.Equal(t, lexer.Module, p.Peek())
}

func TestNewPropagatesLexError(t *testing.T) {
	_, err := New("'unterminated", "t.sh")
	require.Error(t, err)
}

func TestNextAdvancesAndPopulatesValues(t *testing.T) {
	p, err := New("foo 7", "t.sh")
	require.NoError(t, err)

	tok := p.Next()
	assert.Equal(t, lexer.Ident, tok.Type)
	assert.Equal(t, "foo", p.StrValue)

	tok = p.Next()
	assert.Equal(t, lexer.IntLit, tok.Type)
	assert.Equal(t, int64(7), p.IntValue)
}

func TestPeekDoesNotConsume(t *testing.T) {
	p, err := New("module", "t.sh")
	require.NoError(t, err)
	assert.Equal(t, lexer.Module, p.Peek())
	assert.Equal(t, lexer.Module, p.Peek())
	p.Next()
	assert.Equal(t, lexer.EOF, p.Peek())
}

func TestPeekN(t *testing.T) {
	p, err := New("a b c", "t.sh")
	require.NoError(t, err)
	assert.Equal(t, lexer.Ident, p.PeekN(0))
	assert.Equal(t, lexer.Ident, p.PeekN(1))
	assert.Equal(t, lexer.EOF, p.PeekN(99))
}

func TestSkipIfMatchesOrLeavesUntouched(t *testing.T) {
	p, err := New("( x", "t.sh")
	require.NoError(t, err)
	assert.True(t, p.SkipIf(lexer.LParen))
	assert.False(t, p.SkipIf(lexer.RParen))
	assert.Equal(t, lexer.Ident, p.Peek())
}

func TestSkipRequiresMatch(t *testing.T) {
	p, err := New("x", "t.sh")
	require.NoError(t, err)
	err = p.Skip(lexer.LParen, "group")
	require.Error(t, err)
}

func TestSkipConsumesOnMatch(t *testing.T) {
	p, err := New("(", "t.sh")
	require.NoError(t, err)
	require.NoError(t, p.Skip(lexer.LParen, "group"))
	assert.Equal(t, lexer.EOF, p.Peek())
}

func TestSkipSepRequiresSeparatorUnlessAtEndOrEnd(t *testing.T) {
	p, err := New("x", "t.sh")
	require.NoError(t, err)
	p.Next()
	require.NoError(t, p.SkipSep(), "EOF needs no separator")

	p2, err := New("x\ny", "t.sh")
	require.NoError(t, err)
	p2.Next()
	require.NoError(t, p2.SkipSep())
	assert.Equal(t, lexer.Ident, p2.Peek())

	p3, err := New("x y", "t.sh")
	require.NoError(t, err)
	p3.Next()
	require.Error(t, p3.SkipSep(), "no separator between tokens must fail")
}

func TestSkipSepCollapsesRuns(t *testing.T) {
	p, err := New("x\n\n\ny", "t.sh")
	require.NoError(t, err)
	p.Next()
	require.NoError(t, p.SkipSep())
	assert.Equal(t, lexer.Ident, p.Peek())
}

func TestSkipBlankSepsNeverErrors(t *testing.T) {
	p, err := New("x", "t.sh")
	require.NoError(t, err)
	p.SkipBlankSeps()
	assert.Equal(t, lexer.Ident, p.Peek())
}

func TestGetIdent(t *testing.T) {
	p, err := New("foo", "t.sh")
	require.NoError(t, err)
	name, err := p.GetIdent()
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
}

func TestGetIdentErrorsOnNonIdent(t *testing.T) {
	p, err := New("123", "t.sh")
	require.NoError(t, err)
	_, err = p.GetIdent()
	require.Error(t, err)
}

func TestErrorfIncludesFileAndLine(t *testing.T) {
	p, err := New("x\ny", "mod.sh")
	require.NoError(t, err)
	p.Next()
	p.Next() // consumes the SEP, lands on line 2's y
	err = p.Errorf("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mod.sh:2")
}
