// Package lexer turns script source into tokens. Comments and whitespace
// are attached to the following token as leading trivia.
package lexer

import (
	"ownlab/internal/diag"
	"ownlab/internal/source"
	"ownlab/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
	hold   []token.Trivia
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// Next returns the next significant token. Once the input is exhausted
// every call returns EOF; trailing trivia is dropped.
func (lx *Lexer) Next() token.Token {
	if t := lx.look; t != nil {
		lx.look = nil
		return *t
	}

	lx.collectLeadingTrivia()
	if lx.cursor.EOF() {
		lx.hold = nil
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}

	tok := lx.scan(lx.cursor.Peek())
	tok.Leading, lx.hold = lx.hold, nil
	return tok
}

func (lx *Lexer) scan(ch byte) token.Token {
	switch {
	case startsIdent(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	case ch == '\'':
		return lx.scanChar()
	}
	return lx.scanOperatorOrPunct()
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		t := lx.Next()
		lx.look = &t
	}
	return *lx.look
}

// All lexes the rest of the file, EOF included.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

// EmptySpan is a zero-width span at the current offset.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

// token builds a token of kind k covering everything scanned since m.
func (lx *Lexer) token(k token.Kind, m Mark) token.Token {
	sp := lx.cursor.SpanFrom(m)
	return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
}

// invalid reports code over the scanned range and returns an Invalid token.
func (lx *Lexer) invalid(code diag.Code, m Mark, msg string) token.Token {
	tok := lx.token(token.Invalid, m)
	lx.errLex(code, tok.Span, msg)
	return tok
}
