package ast

import (
	"ownlab/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena        *Arena[Expr]
	Idents       *Arena[ExprIdentData]
	Literals     *Arena[ExprLitData]
	Paths        *Arena[ExprPathData]
	Refs         *Arena[ExprRefData]
	Unaries      *Arena[ExprUnaryData]
	Binaries     *Arena[ExprBinaryData]
	Calls        *Arena[ExprCallData]
	MethodCalls  *Arena[ExprMethodCallData]
	Macros       *Arena[ExprMacroData]
	Tuples       *Arena[ExprTupleData]
	Arrays       *Arena[ExprArrayData]
	TupleIndices *Arena[ExprTupleIndexData]
	Indices      *Arena[ExprIndexData]
	Groups       *Arena[ExprGroupData]
}

// NewExprs creates a new Exprs with per-kind arenas preallocated using capHint.
// If capHint is 0, a default capacity of 1<<8 is used.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:        NewArena[Expr](capHint),
		Idents:       NewArena[ExprIdentData](capHint),
		Literals:     NewArena[ExprLitData](capHint),
		Paths:        NewArena[ExprPathData](capHint),
		Refs:         NewArena[ExprRefData](capHint),
		Unaries:      NewArena[ExprUnaryData](capHint),
		Binaries:     NewArena[ExprBinaryData](capHint),
		Calls:        NewArena[ExprCallData](capHint),
		MethodCalls:  NewArena[ExprMethodCallData](capHint),
		Macros:       NewArena[ExprMacroData](capHint),
		Tuples:       NewArena[ExprTupleData](capHint),
		Arrays:       NewArena[ExprArrayData](capHint),
		TupleIndices: NewArena[ExprTupleIndexData](capHint),
		Indices:      NewArena[ExprIndexData](capHint),
		Groups:       NewArena[ExprGroupData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Push(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewIdent(span source.Span, name string) ExprID {
	return e.new(ExprIdent, span, e.Idents.Push(ExprIdentData{Name: name}))
}

func (e *Exprs) NewLiteral(span source.Span, lit ExprLitData) ExprID {
	return e.new(ExprLit, span, e.Literals.Push(lit))
}

func (e *Exprs) NewPath(span source.Span, segments []string) ExprID {
	return e.new(ExprPath, span, e.Paths.Push(ExprPathData{Segments: segments}))
}

func (e *Exprs) NewRef(span source.Span, mut bool, operand ExprID) ExprID {
	return e.new(ExprRef, span, e.Refs.Push(ExprRefData{Mut: mut, Operand: operand}))
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Push(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Push(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Push(ExprCallData{Callee: callee, Args: args}))
}

func (e *Exprs) NewMethodCall(span source.Span, data ExprMethodCallData) ExprID {
	return e.new(ExprMethodCall, span, e.MethodCalls.Push(data))
}

func (e *Exprs) NewMacro(span source.Span, name string, args []ExprID) ExprID {
	return e.new(ExprMacro, span, e.Macros.Push(ExprMacroData{Name: name, Args: args}))
}

func (e *Exprs) NewTuple(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprTuple, span, e.Tuples.Push(ExprTupleData{Elems: elems}))
}

func (e *Exprs) NewArray(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprArray, span, e.Arrays.Push(ExprArrayData{Elems: elems}))
}

func (e *Exprs) NewTupleIndex(span source.Span, target ExprID, index int) ExprID {
	return e.new(ExprTupleIndex, span, e.TupleIndices.Push(ExprTupleIndexData{Target: target, Index: index}))
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Push(ExprIndexData{Target: target, Index: index}))
}

func (e *Exprs) NewGroup(span source.Span, inner ExprID) ExprID {
	return e.new(ExprGroup, span, e.Groups.Push(ExprGroupData{Inner: inner}))
}

func (e *Exprs) Ident(id ExprID) *ExprIdentData {
	if p, ok := e.payload(id, ExprIdent); ok {
		return e.Idents.Get(p)
	}
	return nil
}

func (e *Exprs) Literal(id ExprID) *ExprLitData {
	if p, ok := e.payload(id, ExprLit); ok {
		return e.Literals.Get(p)
	}
	return nil
}

func (e *Exprs) Path(id ExprID) *ExprPathData {
	if p, ok := e.payload(id, ExprPath); ok {
		return e.Paths.Get(p)
	}
	return nil
}

func (e *Exprs) Ref(id ExprID) *ExprRefData {
	if p, ok := e.payload(id, ExprRef); ok {
		return e.Refs.Get(p)
	}
	return nil
}

func (e *Exprs) Unary(id ExprID) *ExprUnaryData {
	if p, ok := e.payload(id, ExprUnary); ok {
		return e.Unaries.Get(p)
	}
	return nil
}

func (e *Exprs) Binary(id ExprID) *ExprBinaryData {
	if p, ok := e.payload(id, ExprBinary); ok {
		return e.Binaries.Get(p)
	}
	return nil
}

func (e *Exprs) Call(id ExprID) *ExprCallData {
	if p, ok := e.payload(id, ExprCall); ok {
		return e.Calls.Get(p)
	}
	return nil
}

func (e *Exprs) MethodCall(id ExprID) *ExprMethodCallData {
	if p, ok := e.payload(id, ExprMethodCall); ok {
		return e.MethodCalls.Get(p)
	}
	return nil
}

func (e *Exprs) Macro(id ExprID) *ExprMacroData {
	if p, ok := e.payload(id, ExprMacro); ok {
		return e.Macros.Get(p)
	}
	return nil
}

func (e *Exprs) Tuple(id ExprID) *ExprTupleData {
	if p, ok := e.payload(id, ExprTuple); ok {
		return e.Tuples.Get(p)
	}
	return nil
}

func (e *Exprs) Array(id ExprID) *ExprArrayData {
	if p, ok := e.payload(id, ExprArray); ok {
		return e.Arrays.Get(p)
	}
	return nil
}

func (e *Exprs) TupleIndex(id ExprID) *ExprTupleIndexData {
	if p, ok := e.payload(id, ExprTupleIndex); ok {
		return e.TupleIndices.Get(p)
	}
	return nil
}

func (e *Exprs) Index(id ExprID) *ExprIndexData {
	if p, ok := e.payload(id, ExprIndex); ok {
		return e.Indices.Get(p)
	}
	return nil
}

func (e *Exprs) Group(id ExprID) *ExprGroupData {
	if p, ok := e.payload(id, ExprGroup); ok {
		return e.Groups.Get(p)
	}
	return nil
}
