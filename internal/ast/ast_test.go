package ast

import (
	"testing"

	"ownlab/internal/source"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil {
		t.Fatalf("index 0 must be empty")
	}
	id := a.Push(42)
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}
	if got := *a.Get(id); got != 42 {
		t.Fatalf("Get(%d) = %d", id, got)
	}
	if a.Get(2) != nil {
		t.Fatalf("out of range Get must return nil")
	}
	a.Push(7)
	var seen []int
	for i, v := range a.All() {
		if *a.Get(i) != *v {
			t.Fatalf("All yielded %d at %d", *v, i)
		}
		seen = append(seen, *v)
	}
	if len(seen) != 2 || seen[0] != 42 || seen[1] != 7 || a.Len() != 2 {
		t.Fatalf("All = %v", seen)
	}
}

func TestTypedGettersCheckKind(t *testing.T) {
	b := NewBuilder(Hints{})
	sp := source.Span{File: 1, Start: 0, End: 1}
	ident := b.Exprs.NewIdent(sp, "x")
	ref := b.Exprs.NewRef(sp, true, ident)

	if b.Exprs.Ident(ident) == nil || b.Exprs.Ident(ref) != nil {
		t.Fatalf("Ident getter ignores kind")
	}
	if r := b.Exprs.Ref(ref); r == nil || !r.Mut || r.Operand != ident {
		t.Fatalf("unexpected ref payload: %+v", r)
	}
	if b.Exprs.Call(NoExprID) != nil {
		t.Fatalf("NoExprID must not resolve")
	}
}

func TestTypesString(t *testing.T) {
	ty := NewTypes(0)
	str := ty.New(Type{Kind: TypePath, Name: "String"})
	ref := ty.New(Type{Kind: TypeRef, Mut: true, Elem: str})
	i32 := ty.New(Type{Kind: TypePath, Name: "i32"})
	tup := ty.New(Type{Kind: TypeTuple, Elems: []TypeID{str, i32}})
	arr := ty.New(Type{Kind: TypeArray, Elem: i32, LenText: "5"})

	tests := []struct {
		id   TypeID
		want string
	}{
		{NoTypeID, "()"},
		{str, "String"},
		{ref, "&mut String"},
		{tup, "(String, i32)"},
		{arr, "[i32; 5]"},
	}
	for _, tt := range tests {
		if got := ty.String(tt.id); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPushItem(t *testing.T) {
	b := NewBuilder(Hints{})
	file := b.Files.New(source.Span{})
	fn := b.Items.NewFn(source.Span{}, FnItem{Name: "main"})
	b.PushItem(file, fn)
	if got := b.Files.Get(file).Items; len(got) != 1 || got[0] != fn {
		t.Fatalf("items = %v", got)
	}
	if b.Items.Const(fn) != nil {
		t.Fatalf("fn resolved as const")
	}
}
