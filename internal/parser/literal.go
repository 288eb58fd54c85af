package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

var numericSuffixes = []string{
	"i128", "u128", "isize", "usize",
	"i64", "u64", "i32", "u32", "i16", "u16", "f32", "f64",
	"i8", "u8",
}

func (p *Parser) decodeLiteral(tok token.Token) (ast.ExprLitData, bool) {
	lit := ast.ExprLitData{Raw: tok.Text}
	switch tok.Kind {
	case token.KwTrue, token.KwFalse:
		lit.Kind = ast.LitBool
		lit.Bool = tok.Kind == token.KwTrue
		return lit, true

	case token.IntLit, token.FloatLit:
		body, suffix := splitSuffix(tok.Text)
		body = strings.ReplaceAll(body, "_", "")
		lit.Suffix = suffix
		if tok.Kind == token.FloatLit || suffix == "f32" || suffix == "f64" {
			f, err := strconv.ParseFloat(body, 64)
			if err != nil {
				p.errorAt(diag.LexBadNumber, tok.Span, "invalid float literal "+tok.Text)
				return lit, false
			}
			lit.Kind = ast.LitFloat
			lit.Float = f
			return lit, true
		}
		base := 10
		if len(body) > 2 && body[0] == '0' {
			switch body[1] {
			case 'x', 'X':
				base = 16
			case 'o', 'O':
				base = 8
			case 'b', 'B':
				base = 2
			}
			if base != 10 {
				body = body[2:]
			}
		}
		n, err := strconv.ParseInt(body, base, 64)
		if err != nil {
			p.errorAt(diag.LexBadNumber, tok.Span, "integer literal "+tok.Text+" is out of range")
			return lit, false
		}
		lit.Kind = ast.LitInt
		lit.Int = n
		return lit, true

	case token.StringLit:
		s, ok := unescape(tok.Text[1 : len(tok.Text)-1])
		if !ok {
			p.errorAt(diag.SynUnexpectedToken, tok.Span, "unknown escape sequence in string literal")
			return lit, false
		}
		lit.Kind = ast.LitString
		lit.Str = s
		return lit, true

	case token.CharLit:
		s, ok := unescape(tok.Text[1 : len(tok.Text)-1])
		if !ok || utf8.RuneCountInString(s) != 1 {
			p.errorAt(diag.SynUnexpectedToken, tok.Span, "char literal must contain exactly one character")
			return lit, false
		}
		lit.Kind = ast.LitChar
		lit.Char, _ = utf8.DecodeRuneInString(s)
		return lit, true
	}
	return lit, false
}

// splitSuffix отделяет суффикс типа. У шестнадцатеричных литералов f32/f64
// являются цифрами, а не суффиксом.
func splitSuffix(text string) (body, suffix string) {
	hex := len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X')
	for _, s := range numericSuffixes {
		if hex && s[0] == 'f' {
			continue
		}
		if len(text) > len(s) && strings.HasSuffix(text, s) {
			return text[:len(text)-len(s)], s
		}
	}
	return text, ""
}

func unescape(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(s[i])
		case 'u':
			// \u{1F600}
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				return "", false
			}
			code, err := strconv.ParseUint(s[i+2:i+end], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", false
			}
			b.WriteRune(rune(code))
			i += end
		default:
			return "", false
		}
	}
	return b.String(), true
}

// tupleIndices разбирает `.1` и слитное `.0.1`, которое лексер отдаёт как float.
func tupleIndices(text string, float bool) ([]int, bool) {
	parts := []string{text}
	if float {
		parts = strings.Split(text, ".")
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		if part == "" || strings.ContainsAny(part, "_xXoObBeE") || (len(part) > 1 && part[0] == '0') {
			return nil, false
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
