package parser

import (
	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// parseType разбирает тип:
//
//	Name | &Type | &mut Type | (T, U, ...) | () | [T; N]
func (p *Parser) parseType() (ast.TypeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.arenas.Types.New(ast.Type{Kind: ast.TypePath, Span: tok.Span, Name: tok.Text}), true

	case token.Amp:
		p.advance()
		mut := false
		if p.at(token.KwMut) {
			p.advance()
			mut = true
		}
		elem, ok := p.parseType()
		if !ok {
			return ast.NoTypeID, false
		}
		return p.arenas.Types.New(ast.Type{Kind: ast.TypeRef, Span: tok.Span.Cover(p.lastSpan), Mut: mut, Elem: elem}), true

	case token.LParen:
		open := p.advance()
		var elems []ast.TypeID
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elem, ok := p.parseType()
			if !ok {
				return ast.NoTypeID, false
			}
			elems = append(elems, elem)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expectClose(token.RParen, open.Span); !ok {
			return ast.NoTypeID, false
		}
		span := open.Span.Cover(p.lastSpan)
		if len(elems) == 0 {
			return p.arenas.Types.New(ast.Type{Kind: ast.TypePath, Span: span, Name: "()"}), true
		}
		return p.arenas.Types.New(ast.Type{Kind: ast.TypeTuple, Span: span, Elems: elems}), true

	case token.LBracket:
		open := p.advance()
		elem, ok := p.parseType()
		if !ok {
			return ast.NoTypeID, false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynUnexpectedToken, "expected ';' in array type"); !ok {
			return ast.NoTypeID, false
		}
		lenTok, ok := p.expect(token.IntLit, diag.SynUnexpectedToken, "expected array length")
		if !ok {
			return ast.NoTypeID, false
		}
		if _, ok := p.expectClose(token.RBracket, open.Span); !ok {
			return ast.NoTypeID, false
		}
		return p.arenas.Types.New(ast.Type{Kind: ast.TypeArray, Span: open.Span.Cover(p.lastSpan), Elem: elem, LenText: lenTok.Text}), true

	default:
		p.errorHere(diag.SynExpectType, "expected type, got "+describe(tok))
		return ast.NoTypeID, false
	}
}
