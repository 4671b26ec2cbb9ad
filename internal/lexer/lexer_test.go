package lexer

import (
	"testing"

	"github.com/quark-lang/quarkc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestNextTokenOperators(t *testing.T) {
	src := `+ - * / % & | ^ ~ ! = < > += -= *= /= %= &= |= ^= == != <= >= && || << >> <<= >>= .. -> => .`
	toks, diags := Tokenize([]byte(src), "t.k")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.AMP, token.PIPE, token.CARET, token.TILDE, token.BANG,
		token.ASSIGN, token.LT, token.GT,
		token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PCT_EQ,
		token.AMP_EQ, token.PIPE_EQ, token.CARET_EQ,
		token.EQ, token.NEQ, token.LTE, token.GTE, token.ANDAND, token.OROR,
		token.SHL, token.SHR, token.SHL_EQ, token.SHR_EQ,
		token.RANGE, token.ARROW, token.FARROW, token.DOT,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNextTokenKeywordsAndIdent(t *testing.T) {
	toks, _ := Tokenize([]byte("fn var if elif else while for ret match break continue true false null this struct impl extern extend data in void map list foobar"), "t.k")
	want := []token.Kind{
		token.FN, token.VAR, token.IF, token.ELIF, token.ELSE, token.WHILE, token.FOR,
		token.RET, token.MATCH, token.BREAK, token.CONTINUE, token.TRUE, token.FALSE,
		token.NULL, token.THIS, token.STRUCT, token.IMPL, token.EXTERN, token.EXTEND,
		token.DATA, token.IN, token.VOID, token.MAP, token.LIST, token.IDENT, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	toks, _ := Tokenize([]byte("42 3.14 0x1A 5f"), "t.k")
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.INT, "42"},
		{token.FLOAT, "3.14"},
		{token.HEXINT, "0x1A"},
		{token.FLOAT, "5f"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d: got {%s %q} want {%s %q}", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
}

func TestNextTokenStringEscapes(t *testing.T) {
	toks, diags := Tokenize([]byte(`"a\nb\tc\\d\"e"`), "t.k")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := "a\nb\tc\\d\"e"
	if toks[0].Text != want {
		t.Fatalf("got %q want %q", toks[0].Text, want)
	}
}

func TestNextTokenCharLiteral(t *testing.T) {
	toks, _ := Tokenize([]byte(`'a' '\n'`), "t.k")
	if toks[0].Kind != token.CHAR || toks[0].Text != "a" {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Kind != token.CHAR || toks[1].Text != "\n" {
		t.Fatalf("got %v", toks[1])
	}
}

func TestUnterminatedStringDiagnostic(t *testing.T) {
	_, diags := Tokenize([]byte(`"unterminated`), "t.k")
	if len(diags) != 1 || diags[0].Code != "LEX001" {
		t.Fatalf("expected LEX001, got %v", diags)
	}
}

func TestUnknownCharacterProducesIllegalToken(t *testing.T) {
	toks, _ := Tokenize([]byte("$"), "t.k")
	if toks[0].Kind != token.ILLEGAL || toks[0].Text != "$" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestNestedBlockComments(t *testing.T) {
	toks, diags := Tokenize([]byte("/* outer /* inner */ still-comment */ 42"), "t.k")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if toks[0].Kind != token.INT || toks[0].Text != "42" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestLineCommentIsWhitespaceEquivalent(t *testing.T) {
	toks, _ := Tokenize([]byte("1 // comment\n2"), "t.k")
	if len(toks) != 3 || toks[0].Text != "1" || toks[1].Text != "2" {
		t.Fatalf("got %v", toks)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	toks, _ := Tokenize([]byte("fn\n  foo"), "t.k")
	// "fn" at line 1 col 1; "foo" at line 2 col 3.
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Fatalf("fn position: %+v", toks[0])
	}
	if toks[1].Line != 2 || toks[1].Column != 3 {
		t.Fatalf("foo position: %+v", toks[1])
	}
}
