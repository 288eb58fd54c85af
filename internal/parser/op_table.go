package parser

import (
	"ownlab/internal/ast"
	"ownlab/internal/token"
)

// binaryOps lists the infix operators. Higher prec binds tighter and all
// of them associate to the left.
var binaryOps = map[token.Kind]struct {
	op   ast.BinaryOp
	prec int
}{
	token.Plus:    {ast.BinaryAdd, 1},
	token.Minus:   {ast.BinarySub, 1},
	token.Star:    {ast.BinaryMul, 2},
	token.Slash:   {ast.BinaryDiv, 2},
	token.Percent: {ast.BinaryRem, 2},
}

// prefixOps are the unary operators other than & and &mut, which build
// reference expressions instead.
var prefixOps = map[token.Kind]ast.UnaryOp{
	token.Minus: ast.UnaryNeg,
	token.Star:  ast.UnaryDeref,
	token.Bang:  ast.UnaryNot,
}
