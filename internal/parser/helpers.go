package parser

import (
	"strconv"

	"ownlab/internal/diag"
	"ownlab/internal/source"
	"ownlab/internal/token"
)

// advance consumes one token. Only real tokens move lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// here is where an error about the next token points. At EOF that is the
// empty span right after the last consumed token.
func (p *Parser) here() source.Span {
	next := p.lx.Peek()
	if next.Kind != token.EOF || p.lastSpan.End == 0 {
		return next.Span
	}
	end := p.lastSpan.End
	return source.Span{File: p.lastSpan.File, Start: end, End: end}
}

func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.here()
	p.errorAt(code, sp, msg+", got "+describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: sp, Text: p.lx.Peek().Text}, false
}

var closeCodes = map[token.Kind]diag.Code{
	token.RParen:   diag.SynUnclosedParen,
	token.RBracket: diag.SynUnclosedBracket,
	token.RBrace:   diag.SynUnclosedBrace,
}

// expectClose wants the closing delimiter k and points a note at open when
// it is missing.
func (p *Parser) expectClose(k token.Kind, open source.Span) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorAt(closeCodes[k], p.here(),
		"expected "+strconv.Quote(k.String())+", got "+describe(p.lx.Peek()),
		diag.Note{Span: open, Msg: "unclosed delimiter opened here"})
	return token.Token{Kind: token.Invalid}, false
}

func (p *Parser) errorHere(code diag.Code, msg string) {
	p.errorAt(code, p.here(), msg)
}

func (p *Parser) errorAt(code diag.Code, sp source.Span, msg string, notes ...diag.Note) {
	p.errs++
	if p.opts.Reporter == nil || (p.opts.MaxErrors > 0 && p.errs > p.opts.MaxErrors) {
		return
	}
	b := diag.ReportError(p.opts.Reporter, code, sp, msg)
	for _, n := range notes {
		b.WithNote(n.Span, n.Msg)
	}
	b.Emit()
}

// resyncUntil skips tokens up to, not including, one of stop or EOF.
func (p *Parser) resyncUntil(stop ...token.Kind) {
	for !p.at(token.EOF) && !p.atOr(stop...) {
		p.advance()
	}
}

func describe(tok token.Token) string {
	switch {
	case tok.Kind == token.EOF:
		return "end of file"
	case tok.Kind == token.Ident:
		return "identifier " + strconv.Quote(tok.Text)
	case tok.Text != "":
		return strconv.Quote(tok.Text)
	}
	return tok.Kind.String()
}
