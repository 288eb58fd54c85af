package ast

import (
	"ownlab/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemConst
)

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

// FnParam is one `name: Type` parameter; `mut name: Type` marks Mut.
type FnParam struct {
	Name string
	Span source.Span
	Type TypeID
	Mut  bool
}

type FnItem struct {
	Name     string
	NameSpan source.Span
	Params   []FnParam
	Result   TypeID // NoTypeID for unit
	Body     StmtID // StmtBlock
	Doc      []string
}

type ConstItem struct {
	Name     string
	NameSpan source.Span
	Type     TypeID
	Value    ExprID
}

type Items struct {
	Arena  *Arena[Item]
	Fns    *Arena[FnItem]
	Consts *Arena[ConstItem]
}

func NewItems(capHint uint) *Items {
	return &Items{
		Arena:  NewArena[Item](capHint),
		Fns:    NewArena[FnItem](capHint),
		Consts: NewArena[ConstItem](capHint),
	}
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewFn(sp source.Span, fn FnItem) ItemID {
	payload := PayloadID(i.Fns.Push(fn))
	return ItemID(i.Arena.Push(Item{Kind: ItemFn, Span: sp, Payload: payload}))
}

func (i *Items) NewConst(sp source.Span, c ConstItem) ItemID {
	payload := PayloadID(i.Consts.Push(c))
	return ItemID(i.Arena.Push(Item{Kind: ItemConst, Span: sp, Payload: payload}))
}

// Fn returns the function payload or nil when id is not a function.
func (i *Items) Fn(id ItemID) *FnItem {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil
	}
	return i.Fns.Get(uint32(item.Payload))
}

// Const returns the constant payload or nil when id is not a constant.
func (i *Items) Const(id ItemID) *ConstItem {
	item := i.Get(id)
	if item == nil || item.Kind != ItemConst {
		return nil
	}
	return i.Consts.Get(uint32(item.Payload))
}
