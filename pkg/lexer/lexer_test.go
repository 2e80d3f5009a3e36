package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/silk/pkg/token"
)

func scanAll(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.End {
			return toks
		}
	}
}

func TestScanEndIsIdempotent(t *testing.T) {
	l := New("")
	first := l.Scan()
	second := l.Scan()
	assert.Equal(t, token.End, first.Kind)
	assert.Equal(t, token.End, second.Kind)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("let x fun")
	require.Len(t, toks, 4)
	assert.Equal(t, token.KeywordLet, toks[0].Kind)
	assert.Equal(t, token.Identifier, toks[1].Kind)
	assert.Equal(t, token.KeywordFun, toks[2].Kind)
}

func TestScanNumericLiteralVariants(t *testing.T) {
	toks := scanAll("7 -7 3.14 .5")
	require.Len(t, toks, 5)
	assert.Equal(t, token.Natural, toks[0].Kind)
	assert.Equal(t, token.Integer, toks[1].Kind)
	assert.Equal(t, token.Real, toks[2].Kind)
	assert.Equal(t, token.Real, toks[3].Kind)
}

func TestScanStringAndCharLiterals(t *testing.T) {
	toks := scanAll(`'hello' "a`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "'hello'", toks[0].Lexeme)
	assert.Equal(t, token.Character, toks[1].Kind)
}

func TestScanUnterminatedStringReportsDiagnostic(t *testing.T) {
	l := New("'unterminated")
	tok := l.Scan()
	assert.Equal(t, token.Illegal, tok.Kind)
	assert.True(t, l.Diagnostics.HasErrors())
}

func TestScanLineCommentsAreSkipped(t *testing.T) {
	toks := scanAll("1 # this is a comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, token.Natural, toks[0].Kind)
	assert.Equal(t, token.Natural, toks[1].Kind)
}

func TestHashBraceIsNotTreatedAsComment(t *testing.T) {
	toks := scanAll("#{ 1: 2 }")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.HashBrace, toks[0].Kind)
}

func TestScanCompoundOperators(t *testing.T) {
	toks := scanAll("== === != <= >= += -= ** **= // //= => -> <- ::")
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind != token.End {
			kinds = append(kinds, tok.Kind)
		}
	}
	want := []token.Kind{
		token.Equal, token.StrictEqual, token.NotEqual, token.LessEqual,
		token.GreaterEqual, token.PlusAssign, token.MinusAssign, token.StarStar,
		token.StarStarAssign, token.SlashSlash, token.SlashSlashAssign,
		token.FatArrow, token.Arrow, token.LeftArrow, token.DoubleColon,
	}
	assert.Equal(t, want, kinds)
}

func TestScanTracksLineAndColumn(t *testing.T) {
	toks := scanAll("1\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Location.Line)
	assert.Equal(t, 2, toks[1].Location.Line)
}

func TestScanIllegalCharacterReportsDiagnostic(t *testing.T) {
	l := New("@")
	tok := l.Scan()
	assert.Equal(t, token.Illegal, tok.Kind)
	assert.True(t, l.Diagnostics.HasErrors())
}
