package lexer

import (
	"testing"

	"github.com/novalang/novac/internal/token"
)

// ----------------------------------------------------------------------------
// Test helpers
// ----------------------------------------------------------------------------

func expectToken(t *testing.T, input string, expected token.Kind) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expected {
		t.Errorf("input %q: expected %v, got %v", input, expected, tok.Kind)
	}
}

func expectTokenValue(t *testing.T, input string, expectedKind token.Kind, expectedValue string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expectedKind {
		t.Errorf("input %q: expected kind %v, got %v", input, expectedKind, tok.Kind)
	}
	if tok.Value != expectedValue {
		t.Errorf("input %q: expected value %q, got %q", input, expectedValue, tok.Value)
	}
}

func expectTokens(t *testing.T, input string, expected []token.Kind) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Errorf("input %q token %d: expected %v, got %v", input, i, exp, tok.Kind)
		}
	}
}

func expectError(t *testing.T, input string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != token.Error {
		t.Errorf("input %q: expected error, got %v", input, tok.Kind)
	}
}

// ----------------------------------------------------------------------------
// Keyword tests
// ----------------------------------------------------------------------------

func TestKeywords(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
	}{
		{"class", token.KwClass}, {"struct", token.KwStruct},
		{"interface", token.KwInterface}, {"implements", token.KwImplements},
		{"extends", token.KwExtends}, {"func", token.KwFunc},
		{"let", token.KwLet}, {"var", token.KwVar}, {"const", token.KwConst},
		{"if", token.KwIf}, {"else", token.KwElse}, {"while", token.KwWhile},
		{"for", token.KwFor}, {"switch", token.KwSwitch}, {"case", token.KwCase},
		{"break", token.KwBreak}, {"continue", token.KwContinue},
		{"return", token.KwReturn}, {"throw", token.KwThrow},
		{"try", token.KwTry}, {"catch", token.KwCatch}, {"new", token.KwNew},
		{"import", token.KwImport}, {"namespace", token.KwNamespace},
		{"virtual", token.KwVirtual}, {"override", token.KwOverride},
		{"macro", token.KwMacro}, {"self", token.KwSelf}, {"mut", token.KwMut},
	}
	for _, c := range cases {
		expectToken(t, c.input, c.kind)
	}
}

func TestReservedWordsRejected(t *testing.T) {
	for _, w := range []string{"trait", "impl", "match", "yield"} {
		expectError(t, w)
	}
}

// ----------------------------------------------------------------------------
// Identifier tests
// ----------------------------------------------------------------------------

func TestIdentifiers(t *testing.T) {
	expectTokenValue(t, "foo_bar", token.Ident, "foo_bar")
	expectTokenValue(t, "_private", token.Ident, "_private")
	expectTokenValue(t, "café", token.Ident, "café")
}

// ----------------------------------------------------------------------------
// Literal tests
// ----------------------------------------------------------------------------

func TestIntLiterals(t *testing.T) {
	expectTokenValue(t, "42", token.IntLiteral, "42")
	expectTokenValue(t, "0x1F", token.IntLiteral, "0x1F")
	expectTokenValue(t, "0b1010", token.IntLiteral, "0b1010")
	expectTokenValue(t, "0o17", token.IntLiteral, "0o17")
	expectTokenValue(t, "42u", token.IntLiteral, "42u")
	expectTokenValue(t, "42l", token.IntLiteral, "42l")
	expectTokenValue(t, "42ul", token.IntLiteral, "42ul")
}

func TestFloatLiterals(t *testing.T) {
	expectToken(t, "3.14", token.FloatLiteral)
	expectToken(t, "0.5e10", token.FloatLiteral)
	expectToken(t, "5f", token.FloatLiteral)
	expectToken(t, "1.", token.FloatLiteral)
}

func TestStringLiteral(t *testing.T) {
	expectTokenValue(t, `"hello"`, token.StringLiteral, "hello")
	expectTokenValue(t, `"a\nb"`, token.StringLiteral, "a\nb")
	expectError(t, `"unterminated`)
}

func TestByteStringLiteral(t *testing.T) {
	expectTokenValue(t, `b"raw"`, token.ByteStringLiteral, "raw")
}

func TestCharLiteral(t *testing.T) {
	expectTokenValue(t, `'a'`, token.CharLiteral, "a")
	expectTokenValue(t, `'\n'`, token.CharLiteral, "\n")
}

// ----------------------------------------------------------------------------
// Pseudo-variable tests
// ----------------------------------------------------------------------------

func TestPseudoVariable(t *testing.T) {
	expectTokenValue(t, "#self", token.PseudoVar, "self")
}

func TestOperatorPseudoVariable(t *testing.T) {
	expectTokenValue(t, "#+", token.PseudoVar, "op_add")
	expectTokenValue(t, "#==", token.PseudoVar, "op_eq")
	expectTokenValue(t, "#[", token.PseudoVar, "op_index")
}

// ----------------------------------------------------------------------------
// Operator / punctuation tests
// ----------------------------------------------------------------------------

func TestOperators(t *testing.T) {
	expectTokens(t, "+ - * / % & && | || ^ ~ ! < > <= >= == != = -> => . .. :: : , ; ? @",
		[]token.Kind{
			token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
			token.Amp, token.AmpAmp, token.Pipe, token.PipePipe, token.Caret,
			token.Tilde, token.Bang, token.Lt, token.Gt, token.LtEq, token.GtEq,
			token.EqEq, token.BangEq, token.Eq, token.Arrow, token.FatArrow,
			token.Dot, token.DotDot, token.ColonColon, token.Colon, token.Comma,
			token.Semicolon, token.Question, token.At,
		})
}

func TestDelimiters(t *testing.T) {
	expectTokens(t, "(){}[];", []token.Kind{
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.LBracket, token.RBracket, token.Semicolon,
	})
}

// ----------------------------------------------------------------------------
// Comments and whitespace
// ----------------------------------------------------------------------------

func TestLineComment(t *testing.T) {
	expectTokens(t, "let x // comment\n= 1;", []token.Kind{
		token.KwLet, token.Ident, token.Eq, token.IntLiteral, token.Semicolon,
	})
}

func TestNestedBlockComment(t *testing.T) {
	expectTokens(t, "/* outer /* inner */ still /* comment */ */let", []token.Kind{token.KwLet})
}

// ----------------------------------------------------------------------------
// Tokenize end-to-end
// ----------------------------------------------------------------------------

func TestTokenizeEndsWithEOF(t *testing.T) {
	l := New("let x = 1;")
	toks := l.Tokenize()
	if toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("last token = %v, want EOF", toks[len(toks)-1].Kind)
	}
}

func TestTokenSpans(t *testing.T) {
	src := "class Foo {}"
	l := New(src)
	tok := l.Next()
	if tok.Text(src) != "class" {
		t.Fatalf("Text() = %q, want %q", tok.Text(src), "class")
	}
}
