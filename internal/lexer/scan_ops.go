package lexer

import (
	"strconv"

	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// pairs are tried before single bytes so `::` never lexes as two colons.
var pairs = [...]struct {
	a, b byte
	kind token.Kind
}{
	{':', ':', token.ColonColon},
	{'-', '>', token.Arrow},
}

var singles = map[byte]token.Kind{
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash, '%': token.Percent,
	'=': token.Assign, '!': token.Bang, '&': token.Amp,
	':': token.Colon, ';': token.Semicolon, ',': token.Comma, '.': token.Dot,
	'(': token.LParen, ')': token.RParen,
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	'_': token.Underscore,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	if b0, b1, ok := lx.cursor.Peek2(); ok {
		for _, p := range pairs {
			if p.a == b0 && p.b == b1 {
				lx.cursor.Off += 2
				return lx.token(p.kind, start)
			}
		}
	}

	r, size := lx.peekRune()
	if size == 1 {
		if k, ok := singles[lx.cursor.Bump()]; ok {
			return lx.token(k, start)
		}
	} else {
		lx.bumpRune()
	}
	return lx.invalid(diag.LexUnknownChar, start, "unknown character "+strconv.QuoteRune(r))
}
