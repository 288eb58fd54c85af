package parser

import (
	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// parseFnItem разбирает `fn name(params) [-> Type] { body }`.
func (p *Parser) parseFnItem() (ast.ItemID, bool) {
	fnTok := p.advance()
	doc := fnTok.Doc()

	nameTok, ok := p.parseIdent()
	if !ok {
		return ast.NoItemID, false
	}

	params, ok := p.parseFnParams()
	if !ok {
		return ast.NoItemID, false
	}

	result := ast.NoTypeID
	if p.at(token.Arrow) {
		p.advance()
		if result, ok = p.parseType(); !ok {
			return ast.NoItemID, false
		}
	}

	if !p.at(token.LBrace) {
		p.errorHere(diag.SynUnexpectedToken, "expected '{' to start the body of `"+nameTok.Text+"`, got "+describe(p.lx.Peek()))
		return ast.NoItemID, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoItemID, false
	}

	if prev, dup := p.fnNames[nameTok.Text]; dup {
		p.errorAt(diag.SynDuplicateFunction, nameTok.Span,
			"function `"+nameTok.Text+"` is defined more than once",
			diag.Note{Span: prev, Msg: "previous definition here"})
	} else {
		p.fnNames[nameTok.Text] = nameTok.Span
	}

	span := fnTok.Span.Cover(p.lastSpan)
	return p.arenas.Items.NewFn(span, ast.FnItem{
		Name:     nameTok.Text,
		NameSpan: nameTok.Span,
		Params:   params,
		Result:   result,
		Body:     body,
		Doc:      doc,
	}), true
}

// parseFnParams разбирает `( [mut] name: Type, ... )`, допускается висячая запятая.
func (p *Parser) parseFnParams() ([]ast.FnParam, bool) {
	open, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name")
	if !ok {
		return nil, false
	}
	var params []ast.FnParam
	for !p.at(token.RParen) && !p.at(token.EOF) {
		var param ast.FnParam
		start := p.lx.Peek().Span
		if p.at(token.KwMut) {
			p.advance()
			param.Mut = true
		}
		nameTok, ok := p.parseIdent()
		if !ok {
			return nil, false
		}
		param.Name = nameTok.Text
		if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected ':' and a type after parameter `"+nameTok.Text+"`"); !ok {
			return nil, false
		}
		if param.Type, ok = p.parseType(); !ok {
			return nil, false
		}
		param.Span = start.Cover(p.lastSpan)
		params = append(params, param)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expectClose(token.RParen, open.Span); !ok {
		return nil, false
	}
	return params, true
}

// parseConstItem разбирает `const NAME: Type = expr;` на верхнем уровне.
func (p *Parser) parseConstItem() (ast.ItemID, bool) {
	start := p.lx.Peek().Span
	c, ok := p.parseConst()
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewConst(start.Cover(p.lastSpan), c), true
}

// parseConst общий разбор const для item и для инструкции внутри блока.
// Тип у константы обязателен.
func (p *Parser) parseConst() (ast.ConstItem, bool) {
	p.advance() // const
	nameTok, ok := p.parseIdent()
	if !ok {
		return ast.ConstItem{}, false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectType, "constant `"+nameTok.Text+"` needs a type annotation"); !ok {
		return ast.ConstItem{}, false
	}
	typ, ok := p.parseType()
	if !ok {
		return ast.ConstItem{}, false
	}
	if _, ok := p.expect(token.Assign, diag.SynExpectEquals, "expected '=' in constant declaration"); !ok {
		return ast.ConstItem{}, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.ConstItem{}, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynUnexpectedToken, "expected ';' after constant"); !ok {
		return ast.ConstItem{}, false
	}
	return ast.ConstItem{
		Name:     nameTok.Text,
		NameSpan: nameTok.Span,
		Type:     typ,
		Value:    value,
	}, true
}
