package ast

import (
	"strings"

	"ownlab/internal/source"
)

type TypeKind uint8

const (
	TypePath TypeKind = iota
	TypeRef
	TypeTuple
	TypeArray
)

type Type struct {
	Kind    TypeKind
	Span    source.Span
	Name    string   // TypePath
	Mut     bool     // TypeRef
	Elem    TypeID   // TypeRef, TypeArray
	Elems   []TypeID // TypeTuple
	LenText string   // TypeArray
}

type Types struct {
	Arena *Arena[Type]
}

func NewTypes(capHint uint) *Types {
	return &Types{Arena: NewArena[Type](capHint)}
}

func (t *Types) New(ty Type) TypeID {
	return TypeID(t.Arena.Push(ty))
}

func (t *Types) Get(id TypeID) *Type {
	return t.Arena.Get(uint32(id))
}

// String renders the type back in source form, e.g. "&mut String".
func (t *Types) String(id TypeID) string {
	ty := t.Get(id)
	if ty == nil {
		return "()"
	}
	switch ty.Kind {
	case TypeRef:
		if ty.Mut {
			return "&mut " + t.String(ty.Elem)
		}
		return "&" + t.String(ty.Elem)
	case TypeTuple:
		parts := make([]string, len(ty.Elems))
		for i, e := range ty.Elems {
			parts[i] = t.String(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeArray:
		return "[" + t.String(ty.Elem) + "; " + ty.LenText + "]"
	default:
		return ty.Name
	}
}
