package lexer

import (
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

func isBlank(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

// collectLeadingTrivia gathers the trivia in front of the next token into
// lx.hold. Runs of blanks and runs of newlines each collapse to one item.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		switch b := lx.cursor.Peek(); {
		case isBlank(b):
			lx.skipWhile(isBlank)
			lx.pushTrivia(token.TriviaSpace, start)
		case b == '\n':
			lx.skipWhile(func(b byte) bool { return b == '\n' })
			lx.pushTrivia(token.TriviaNewline, start)
		case b == '/' && lx.scanComment():
		default:
			return
		}
	}
}

func (lx *Lexer) skipWhile(pred func(byte) bool) {
	for !lx.cursor.EOF() && pred(lx.cursor.Peek()) {
		lx.cursor.Off++
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

// scanComment consumes a line or block comment. Exactly three slashes make
// a doc line; four or more are a plain separator comment. Block comments
// nest.
func (lx *Lexer) scanComment() bool {
	start := lx.cursor.Mark()
	_, b1, ok := lx.cursor.Peek2()
	if !ok || (b1 != '/' && b1 != '*') {
		return false
	}
	lx.cursor.Off += 2

	if b1 == '/' {
		kind := token.TriviaLineComment
		if c0, c1, ok := lx.cursor.Peek2(); c0 == '/' && (!ok || c1 != '/') {
			kind = token.TriviaDocLine
		} else if !ok && lx.cursor.Peek() == '/' {
			kind = token.TriviaDocLine
		}
		lx.skipWhile(func(b byte) bool { return b != '\n' })
		lx.pushTrivia(kind, start)
		return true
	}

	depth := 1
	for depth > 0 && !lx.cursor.EOF() {
		c0, c1, _ := lx.cursor.Peek2()
		switch {
		case c0 == '/' && c1 == '*':
			depth++
			lx.cursor.Off += 2
		case c0 == '*' && c1 == '/':
			depth--
			lx.cursor.Off += 2
		default:
			lx.cursor.Off++
		}
	}
	if depth > 0 {
		lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
	}
	lx.pushTrivia(token.TriviaBlockComment, start)
	return true
}
