package lexer

import (
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// scanString reads a quoted string. Escapes are skipped, not decoded: the
// token text keeps the quotes and the parser unescapes it.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '"':
			lx.cursor.Bump()
			return lx.token(token.StringLit, start)
		case '\\':
			lx.cursor.Off++
			lx.cursor.Bump()
		default:
			lx.bumpRune()
		}
	}
	return lx.invalid(diag.LexUnterminatedString, start, "unterminated string literal")
}

// scanChar reads a char literal holding one rune or one escape.
func (lx *Lexer) scanChar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	switch lx.cursor.Peek() {
	case '\\':
		lx.cursor.Off++
		lx.cursor.Bump()
	case '\'', '\n':
	default:
		lx.bumpRune()
	}
	if !lx.cursor.Eat('\'') {
		return lx.invalid(diag.LexUnterminatedChar, start, "unterminated char literal")
	}
	return lx.token(token.CharLit, start)
}
