package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/diag"
	"ownlab/internal/lexer"
	"ownlab/internal/source"
	"ownlab/internal/token"
)

func lex(t *testing.T, input string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("<test>", []byte(input))
	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLexStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "let mut",
			input: "let mut s = String::from(\"hello\");",
			want: []token.Kind{token.KwLet, token.KwMut, token.Ident, token.Assign, token.Ident, token.ColonColon,
				token.Ident, token.LParen, token.StringLit, token.RParen, token.Semicolon, token.EOF},
		},
		{
			name:  "tuple index is not a float",
			input: "_tup.1",
			want:  []token.Kind{token.Ident, token.Dot, token.IntLit, token.EOF},
		},
		{
			name:  "fn signature",
			input: "fn change(s: &mut String) -> (String, usize) {}",
			want: []token.Kind{token.KwFn, token.Ident, token.LParen, token.Ident, token.Colon, token.Amp, token.KwMut,
				token.Ident, token.RParen, token.Arrow, token.LParen, token.Ident, token.Comma, token.Ident, token.RParen,
				token.LBrace, token.RBrace, token.EOF},
		},
		{
			name:  "macro and char",
			input: "println!(\"{}\", 'z');",
			want: []token.Kind{token.Ident, token.Bang, token.LParen, token.StringLit, token.Comma, token.CharLit,
				token.RParen, token.Semicolon, token.EOF},
		},
		{
			name:  "numbers",
			input: "100_000 6.4 2.0 1e3 0xff 5u32 -100",
			want: []token.Kind{token.IntLit, token.FloatLit, token.FloatLit, token.FloatLit, token.IntLit, token.IntLit,
				token.Minus, token.IntLit, token.EOF},
		},
		{
			name:  "underscore",
			input: "let _ = __s;",
			want:  []token.Kind{token.KwLet, token.Underscore, token.Assign, token.Ident, token.Semicolon, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lex(t, tt.input)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items())
			}
			if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexTextMatchesSpan(t *testing.T) {
	input := "let s1 = \"hé\"; // trailing"
	toks, _ := lex(t, input)
	for _, tk := range toks {
		if got := input[tk.Span.Start:tk.Span.End]; got != tk.Text {
			t.Fatalf("token %v: text %q, span covers %q", tk.Kind, tk.Text, got)
		}
	}
}

func TestLexTrivia(t *testing.T) {
	input := "/// Rust's central feature\n//////////\n/* block /* nested */ */ fn"
	toks, bag := lex(t, input)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	fn := toks[0]
	if fn.Kind != token.KwFn {
		t.Fatalf("first token = %v", fn.Kind)
	}
	var got []token.TriviaKind
	for _, tr := range fn.Leading {
		got = append(got, tr.Kind)
	}
	want := []token.TriviaKind{
		token.TriviaDocLine, token.TriviaNewline,
		token.TriviaLineComment, token.TriviaNewline,
		token.TriviaBlockComment, token.TriviaSpace,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("trivia mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Rust's central feature"}, fn.Doc()); diff != "" {
		t.Fatalf("doc mismatch (-want +got):\n%s", diff)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diag.Code
	}{
		{"unterminated string", "\"abc", diag.LexUnterminatedString},
		{"unterminated block comment", "/* abc", diag.LexUnterminatedBlockComment},
		{"unknown char", "let x = 5 # 3;", diag.LexUnknownChar},
		{"bad exponent", "1e+", diag.LexBadNumber},
		{"empty hex", "0x", diag.LexBadNumber},
		{"unterminated char", "'ab'", diag.LexUnterminatedChar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := lex(t, tt.input)
			if bag.Len() == 0 {
				t.Fatalf("expected %s", tt.code.ID())
			}
			if got := bag.Items()[0].Code; got != tt.code {
				t.Fatalf("code = %s, want %s", got.ID(), tt.code.ID())
			}
		})
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("<peek>", []byte("a b"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("next after peek = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("second = %q", n.Text)
	}
	for range 3 {
		if n := lx.Next(); n.Kind != token.EOF {
			t.Fatalf("expected sticky EOF, got %v", n.Kind)
		}
	}
}

func TestIdentifierSpellingsNormalized(t *testing.T) {
	toks, bag := lex(t, "caf\u00e9 cafe\u0301")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(toks) < 2 || toks[0].Kind != token.Ident || toks[1].Kind != token.Ident {
		t.Fatalf("kinds = %v", kinds(toks))
	}
	if toks[0].Text != toks[1].Text {
		t.Errorf("texts differ: %q vs %q", toks[0].Text, toks[1].Text)
	}
	if got := toks[1].Span.End - toks[1].Span.Start; got != uint32(len("cafe\u0301")) {
		t.Errorf("decomposed span covers %d bytes", got)
	}
}
