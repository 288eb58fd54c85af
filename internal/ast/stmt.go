package ast

import (
	"ownlab/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtLet
	StmtConst
	StmtAssign
	StmtReturn
	StmtExpr
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// BlockStmt is `{ stmts; tail }`. Tail is the trailing expression without
// a semicolon, or NoExprID.
type BlockStmt struct {
	Stmts []StmtID
	Tail  ExprID
}

// LetName is one bound name; `_` binds nothing and has an empty Name.
type LetName struct {
	Name string
	Span source.Span
	Mut  bool
}

// LetStmt covers `let [mut] x [: T] = e` and `let (a, mut b) = e`.
type LetStmt struct {
	Names []LetName
	Tuple bool
	Type  TypeID
	Value ExprID
}

type AssignStmt struct {
	Target ExprID
	Value  ExprID
}

type ReturnStmt struct {
	Value ExprID
}

type ExprStmt struct {
	Expr ExprID
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Blocks  *Arena[BlockStmt]
	Lets    *Arena[LetStmt]
	Consts  *Arena[ConstItem]
	Assigns *Arena[AssignStmt]
	Returns *Arena[ReturnStmt]
	Exprs   *Arena[ExprStmt]
}

func NewStmts(capHint uint) *Stmts {
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Blocks:  NewArena[BlockStmt](capHint),
		Lets:    NewArena[LetStmt](capHint),
		Consts:  NewArena[ConstItem](capHint),
		Assigns: NewArena[AssignStmt](capHint),
		Returns: NewArena[ReturnStmt](capHint),
		Exprs:   NewArena[ExprStmt](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, sp source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Push(Stmt{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewBlock(sp source.Span, stmts []StmtID, tail ExprID) StmtID {
	return s.new(StmtBlock, sp, s.Blocks.Push(BlockStmt{Stmts: stmts, Tail: tail}))
}

func (s *Stmts) NewLet(sp source.Span, let LetStmt) StmtID {
	return s.new(StmtLet, sp, s.Lets.Push(let))
}

func (s *Stmts) NewConst(sp source.Span, c ConstItem) StmtID {
	return s.new(StmtConst, sp, s.Consts.Push(c))
}

func (s *Stmts) NewAssign(sp source.Span, target, value ExprID) StmtID {
	return s.new(StmtAssign, sp, s.Assigns.Push(AssignStmt{Target: target, Value: value}))
}

func (s *Stmts) NewReturn(sp source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, sp, s.Returns.Push(ReturnStmt{Value: value}))
}

func (s *Stmts) NewExpr(sp source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, sp, s.Exprs.Push(ExprStmt{Expr: expr}))
}

func (s *Stmts) Block(id StmtID) *BlockStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtBlock {
		return s.Blocks.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Let(id StmtID) *LetStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtLet {
		return s.Lets.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Const(id StmtID) *ConstItem {
	if st := s.Get(id); st != nil && st.Kind == StmtConst {
		return s.Consts.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Assign(id StmtID) *AssignStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtAssign {
		return s.Assigns.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Return(id StmtID) *ReturnStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtReturn {
		return s.Returns.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Expr(id StmtID) *ExprStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtExpr {
		return s.Exprs.Get(uint32(st.Payload))
	}
	return nil
}
