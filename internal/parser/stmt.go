package parser

import (
	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/token"
)

// parseBlock разбирает `{ stmt* [tail] }`. Хвостовое выражение без ';'
// становится значением блока.
func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open := p.advance() // {
	var stmts []ast.StmtID
	tail := ast.NoExprID

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.KwFn) {
			// скорее всего потерялась '}' - пусть expectClose укажет на открывающую
			break
		}
		stmt, expr, ok := p.parseStmt()
		if !ok {
			p.resyncStmt()
			continue
		}
		if expr.IsValid() {
			tail = expr
		} else if stmt.IsValid() {
			stmts = append(stmts, stmt)
		}
	}
	if _, ok := p.expectClose(token.RBrace, open.Span); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewBlock(open.Span.Cover(p.lastSpan), stmts, tail), true
}

// parseStmt возвращает либо инструкцию, либо хвостовое выражение блока.
func (p *Parser) parseStmt() (ast.StmtID, ast.ExprID, bool) {
	start := p.lx.Peek().Span
	switch p.lx.Peek().Kind {
	case token.Semicolon:
		p.advance() // пустая инструкция
		return ast.NoStmtID, ast.NoExprID, true

	case token.LBrace:
		block, ok := p.parseBlock()
		return block, ast.NoExprID, ok

	case token.KwLet:
		let, ok := p.parseLet()
		if !ok {
			return ast.NoStmtID, ast.NoExprID, false
		}
		return p.arenas.Stmts.NewLet(start.Cover(p.lastSpan), let), ast.NoExprID, true

	case token.KwConst:
		c, ok := p.parseConst()
		if !ok {
			return ast.NoStmtID, ast.NoExprID, false
		}
		return p.arenas.Stmts.NewConst(start.Cover(p.lastSpan), c), ast.NoExprID, true

	case token.KwReturn:
		p.advance()
		value := ast.NoExprID
		if !p.at(token.Semicolon) && !p.at(token.RBrace) {
			var ok bool
			if value, ok = p.parseExpr(); !ok {
				return ast.NoStmtID, ast.NoExprID, false
			}
		}
		if p.at(token.Semicolon) {
			p.advance()
		}
		return p.arenas.Stmts.NewReturn(start.Cover(p.lastSpan), value), ast.NoExprID, true

	}

	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, ast.NoExprID, false
	}

	if p.at(token.Assign) {
		p.advance()
		value, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, ast.NoExprID, false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynUnexpectedToken, "expected ';' after assignment"); !ok {
			return ast.NoStmtID, ast.NoExprID, false
		}
		return p.arenas.Stmts.NewAssign(start.Cover(p.lastSpan), expr, value), ast.NoExprID, true
	}

	switch {
	case p.at(token.Semicolon):
		p.advance()
		return p.arenas.Stmts.NewExpr(start.Cover(p.lastSpan), expr), ast.NoExprID, true
	case p.at(token.RBrace):
		return ast.NoStmtID, expr, true
	default:
		p.errorHere(diag.SynUnexpectedToken, "expected ';' after expression, got "+describe(p.lx.Peek()))
		return ast.NoStmtID, ast.NoExprID, false
	}
}

// parseLet разбирает `let [mut] x [: T] = e;` и `let (a, mut b) = e;`.
func (p *Parser) parseLet() (ast.LetStmt, bool) {
	p.advance() // let
	var let ast.LetStmt

	if p.at(token.LParen) {
		open := p.advance()
		let.Tuple = true
		for !p.at(token.RParen) && !p.at(token.EOF) {
			name, ok := p.parseLetName()
			if !ok {
				return ast.LetStmt{}, false
			}
			let.Names = append(let.Names, name)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expectClose(token.RParen, open.Span); !ok {
			return ast.LetStmt{}, false
		}
	} else {
		name, ok := p.parseLetName()
		if !ok {
			return ast.LetStmt{}, false
		}
		let.Names = []ast.LetName{name}
	}

	if p.at(token.Colon) {
		p.advance()
		var ok bool
		if let.Type, ok = p.parseType(); !ok {
			return ast.LetStmt{}, false
		}
	}

	if _, ok := p.expect(token.Assign, diag.SynExpectEquals, "expected '=' in let binding"); !ok {
		return ast.LetStmt{}, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.LetStmt{}, false
	}
	let.Value = value
	if _, ok := p.expect(token.Semicolon, diag.SynUnexpectedToken, "expected ';' after let binding"); !ok {
		return ast.LetStmt{}, false
	}
	return let, true
}

func (p *Parser) parseLetName() (ast.LetName, bool) {
	start := p.lx.Peek().Span
	mut := false
	if p.at(token.KwMut) {
		p.advance()
		mut = true
	}
	tok, ok := p.parseIdent()
	if !ok {
		return ast.LetName{}, false
	}
	name := tok.Text
	if tok.Kind == token.Underscore {
		name = ""
	}
	return ast.LetName{Name: name, Span: start.Cover(tok.Span), Mut: mut}, true
}

// resyncStmt - пропускаем до ';' (съедая её) либо до '}' / начала инструкции.
func (p *Parser) resyncStmt() {
	for !p.at(token.EOF) {
		switch p.lx.Peek().Kind {
		case token.Semicolon:
			p.advance()
			return
		case token.RBrace, token.KwLet, token.KwConst, token.KwReturn, token.KwFn:
			return
		}
		p.advance()
	}
}
