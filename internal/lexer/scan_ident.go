package lexer

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"ownlab/internal/token"
)

// scanIdentOrKeyword reads a Unicode identifier. A lone `_` is Underscore
// and keywords come from token.LookupKeyword. Identifier text is NFC so
// composed and decomposed spellings name the same binding; the span still
// covers the source bytes.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	if r, size := lx.peekRune(); size == 0 || !isIdentStartRune(r) {
		return lx.scanOperatorOrPunct()
	}
	lx.bumpRune()
	for r, size := lx.peekRune(); size > 0 && isIdentContinueRune(r); r, size = lx.peekRune() {
		lx.bumpRune()
	}

	tok := lx.token(token.Ident, start)
	if !norm.NFC.IsNormalString(tok.Text) {
		tok.Text = norm.NFC.String(tok.Text)
	}
	switch k, ok := token.LookupKeyword(tok.Text); {
	case tok.Text == "_":
		tok.Kind = token.Underscore
	case ok:
		tok.Kind = k
	}
	return tok
}

func startsIdent(b byte) bool { return isIdentStartByte(b) || b >= utf8.RuneSelf }
