package scanner_test

import (
	"testing"

	"github.com/emberlang/ember/lang/scanner"
	"github.com/emberlang/ember/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScannerPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(t, `let a = 1 + 2; while (true) { break; }`)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.LET, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, token.EQ, toks[2].Kind)
	assert.Equal(t, token.NUMBER, toks[3].Kind)
	assert.Equal(t, token.PLUS, toks[4].Kind)

	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, token.WHILE)
	assert.Contains(t, kinds, token.BREAK)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestScannerNumberPrefixes(t *testing.T) {
	for _, src := range []string{"0x1F", "0b101", "0o17", "3.14"} {
		toks := scanAll(t, src)
		require.Len(t, toks, 2)
		assert.Equal(t, token.NUMBER, toks[0].Kind)
		assert.Equal(t, src, toks[0].Lexeme)
	}
}

func TestScannerString(t *testing.T) {
	toks := scanAll(t, `"hello\nworld"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello\nworld", toks[0].Lexeme)
}

func TestScannerLineTracking(t *testing.T) {
	toks := scanAll(t, "let a = 1;\nlet b = 2;")
	var line2 bool
	for _, tok := range toks {
		if tok.Kind == token.LET && tok.Line == 2 {
			line2 = true
		}
	}
	assert.True(t, line2)
}

func TestScannerCompoundAssign(t *testing.T) {
	toks := scanAll(t, "a += 1; b -= 2; c *= 3; d /= 4;")
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, token.PLUS_EQ)
	assert.Contains(t, kinds, token.MINUS_EQ)
	assert.Contains(t, kinds, token.STAR_EQ)
	assert.Contains(t, kinds, token.SLASH_EQ)
}
