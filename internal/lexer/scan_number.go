package lexer

import (
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// radixDigits maps a base prefix letter to its digit class.
var radixDigits = map[byte]func(byte) bool{
	'b': func(b byte) bool { return b == '0' || b == '1' },
	'o': func(b byte) bool { return '0' <= b && b <= '7' },
	'x': isHex,
}

// scanNumber reads integer and float literals: 42, 1_000, 0xff, 0b1010,
// 0o17, 2.5, 1e-3. A type suffix such as u8 or f64 stays in the token text.
// ".5" is not a number and "t.0" is a field access, so a dot only starts a
// fraction when a digit follows it.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '0' {
		if digit, ok := radixDigits[b1|0x20]; ok {
			lx.cursor.Off += 2
			if lx.scanRun(digit) == 0 {
				return lx.invalid(diag.LexBadNumber, start, "missing digits after base prefix")
			}
			lx.scanSuffix()
			return lx.token(token.IntLit, start)
		}
	}

	kind := token.IntLit
	lx.scanRun(isDec)
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '.' && isDec(b1) {
		kind = token.FloatLit
		lx.cursor.Bump()
		lx.scanRun(isDec)
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			return lx.invalid(diag.LexBadNumber, start, "expected digit after exponent")
		}
		kind = token.FloatLit
		lx.scanRun(isDec)
	}
	lx.scanSuffix()
	return lx.token(kind, start)
}

// scanRun consumes digits and '_' separators and returns how many digits
// it saw.
func (lx *Lexer) scanRun(digit func(byte) bool) int {
	n := 0
	for b := lx.cursor.Peek(); digit(b) || b == '_'; b = lx.cursor.Peek() {
		if lx.cursor.Bump() != '_' {
			n++
		}
	}
	return n
}

func (lx *Lexer) scanSuffix() {
	switch lx.cursor.Peek() {
	case 'i', 'u', 'f':
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
}
