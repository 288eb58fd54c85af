package ast

import (
	"ownlab/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprPath
	ExprRef
	ExprUnary
	ExprBinary
	ExprCall
	ExprMethodCall
	ExprMacro
	ExprTuple
	ExprArray
	ExprTupleIndex
	ExprIndex
	ExprGroup
)

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprIdentData struct {
	Name string
}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitChar
	LitString
)

// ExprLitData keeps the raw text together with the decoded value.
type ExprLitData struct {
	Kind   LitKind
	Raw    string
	Suffix string // i32, u8, f64, ...
	Int    int64
	Float  float64
	Bool   bool
	Char   rune
	Str    string
}

// ExprPathData is `A::b`, e.g. String::from.
type ExprPathData struct {
	Segments []string
}

type ExprRefData struct {
	Mut     bool
	Operand ExprID
}

type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryDeref
	UnaryNot
)

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryRem
)

func (op BinaryOp) String() string {
	return [...]string{"+", "-", "*", "/", "%"}[op]
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprMethodCallData struct {
	Receiver ExprID
	Name     string
	NameSpan source.Span
	Args     []ExprID
}

// ExprMacroData is `name!(args)`; the first argument of println! is the format string.
type ExprMacroData struct {
	Name string
	Args []ExprID
}

type ExprTupleData struct {
	Elems []ExprID
}

type ExprArrayData struct {
	Elems []ExprID
}

type ExprTupleIndexData struct {
	Target ExprID
	Index  int
}

type ExprIndexData struct {
	Target ExprID
	Index  ExprID
}

type ExprGroupData struct {
	Inner ExprID
}
