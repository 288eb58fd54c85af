package parser

import (
	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/source"
	"ownlab/internal/token"
)

func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr climbs precedence: operands of an operator at level
// prec are parsed at prec+1.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	for ok {
		bin, isBinary := binaryOps[p.lx.Peek().Kind]
		if !isBinary || bin.prec < minPrec {
			return left, true
		}
		p.advance()
		var right ast.ExprID
		if right, ok = p.parseBinaryExpr(bin.prec + 1); ok {
			left = p.arenas.Exprs.NewBinary(p.cover(left, right), bin.op, left, right)
		}
	}
	return ast.NoExprID, false
}

// parseUnaryExpr handles the prefixes - ! * & and &mut.
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	op, isPrefix := prefixOps[tok.Kind]
	if tok.Kind != token.Amp && !isPrefix {
		return p.parsePostfixExpr()
	}
	p.advance()
	mut := tok.Kind == token.Amp && p.at(token.KwMut)
	if mut {
		p.advance()
	}
	operand, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := tok.Span.Cover(p.arenas.Exprs.Get(operand).Span)
	if tok.Kind == token.Amp {
		return p.arenas.Exprs.NewRef(span, mut, operand), true
	}
	return p.arenas.Exprs.NewUnary(span, op, operand), true
}

func (p *Parser) cover(a, b ast.ExprID) source.Span {
	return p.arenas.Exprs.Get(a).Span.Cover(p.arenas.Exprs.Get(b).Span)
}

// parsePostfixExpr: вызовы, методы, индексы кортежей и массивов.
func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for {
		start := p.arenas.Exprs.Get(expr).Span
		switch p.lx.Peek().Kind {
		case token.LParen:
			args, ok := p.parseArgs()
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.arenas.Exprs.NewCall(start.Cover(p.lastSpan), expr, args)

		case token.LBracket:
			open := p.advance()
			index, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			if _, ok := p.expectClose(token.RBracket, open.Span); !ok {
				return ast.NoExprID, false
			}
			expr = p.arenas.Exprs.NewIndex(start.Cover(p.lastSpan), expr, index)

		case token.Dot:
			p.advance()
			next := p.lx.Peek()
			switch next.Kind {
			case token.Ident:
				p.advance()
				if !p.at(token.LParen) {
					p.errorHere(diag.SynUnexpectedToken, "field access is not supported; expected '(' after method `"+next.Text+"`")
					return ast.NoExprID, false
				}
				args, ok := p.parseArgs()
				if !ok {
					return ast.NoExprID, false
				}
				expr = p.arenas.Exprs.NewMethodCall(start.Cover(p.lastSpan), ast.ExprMethodCallData{
					Receiver: expr,
					Name:     next.Text,
					NameSpan: next.Span,
					Args:     args,
				})
			case token.IntLit, token.FloatLit:
				p.advance()
				indices, ok := tupleIndices(next.Text, next.Kind == token.FloatLit)
				if !ok {
					p.errorAt(diag.SynInvalidTupleIndex, next.Span, "invalid tuple index "+next.Text)
					return ast.NoExprID, false
				}
				for _, idx := range indices {
					expr = p.arenas.Exprs.NewTupleIndex(start.Cover(next.Span), expr, idx)
				}
			default:
				p.errorHere(diag.SynExpectIdentifier, "expected method name or tuple index after '.', got "+describe(next))
				return ast.NoExprID, false
			}

		default:
			return expr, true
		}
	}
}

// parseArgs разбирает `( expr, ... )`, допускается висячая запятая.
func (p *Parser) parseArgs() ([]ast.ExprID, bool) {
	open := p.advance() // (
	var args []ast.ExprID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expectClose(token.RParen, open.Span); !ok {
		return nil, false
	}
	return args, true
}

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		switch {
		case p.at(token.ColonColon):
			segments := []string{tok.Text}
			for p.at(token.ColonColon) {
				p.advance()
				seg, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after '::'")
				if !ok {
					return ast.NoExprID, false
				}
				segments = append(segments, seg.Text)
			}
			return p.arenas.Exprs.NewPath(tok.Span.Cover(p.lastSpan), segments), true
		case p.at(token.Bang):
			p.advance()
			if !p.at(token.LParen) {
				p.errorHere(diag.SynUnexpectedToken, "expected '(' after `"+tok.Text+"!`, got "+describe(p.lx.Peek()))
				return ast.NoExprID, false
			}
			args, ok := p.parseArgs()
			if !ok {
				return ast.NoExprID, false
			}
			return p.arenas.Exprs.NewMacro(tok.Span.Cover(p.lastSpan), tok.Text, args), true
		}
		return p.arenas.Exprs.NewIdent(tok.Span, tok.Text), true

	case token.IntLit, token.FloatLit, token.StringLit, token.CharLit, token.KwTrue, token.KwFalse:
		p.advance()
		lit, ok := p.decodeLiteral(tok)
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewLiteral(tok.Span, lit), true

	case token.LParen:
		open := p.advance()
		var elems []ast.ExprID
		trailingComma := false
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elem, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			elems = append(elems, elem)
			trailingComma = false
			if !p.at(token.Comma) {
				break
			}
			p.advance()
			trailingComma = true
		}
		if _, ok := p.expectClose(token.RParen, open.Span); !ok {
			return ast.NoExprID, false
		}
		span := open.Span.Cover(p.lastSpan)
		if len(elems) == 1 && !trailingComma {
			return p.arenas.Exprs.NewGroup(span, elems[0]), true
		}
		return p.arenas.Exprs.NewTuple(span, elems), true

	case token.LBracket:
		open := p.advance()
		var elems []ast.ExprID
		for !p.at(token.RBracket) && !p.at(token.EOF) {
			elem, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			elems = append(elems, elem)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expectClose(token.RBracket, open.Span); !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewArray(open.Span.Cover(p.lastSpan), elems), true

	case token.Invalid:
		// лексер уже сообщил об ошибке
		p.advance()
		return ast.NoExprID, false

	default:
		p.errorHere(diag.SynExpectExpression, "expected expression, got "+describe(tok))
		return ast.NoExprID, false
	}
}
