package interp

import (
	"fmt"
	"strconv"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// intRanges are the bounds of the integer types a literal is checked against.
// Wider types are represented as int64 and are not range-checked.
var intRanges = map[string][2]int64{
	"i8":  {-1 << 7, 1<<7 - 1},
	"i16": {-1 << 15, 1<<15 - 1},
	"i32": {-1 << 31, 1<<31 - 1},
	"u8":  {0, 1<<8 - 1},
	"u16": {0, 1<<16 - 1},
	"u32": {0, 1<<32 - 1},
}

var wideInts = map[string]bool{"i64": true, "i128": true, "isize": true, "u64": true, "u128": true, "usize": true}

// checkType compares v with a declared type. The check is loose: it tells
// owned strings from borrows and scalars apart and validates tuple and array
// shapes, unknown type names accept anything.
func (in *Interpreter) checkType(id ast.TypeID, v own.Value, site source.Span, op string) error {
	if !id.IsValid() {
		if op == "return" && !isUnit(v) {
			return &own.Error{Code: diag.OwnTypeMismatch, Op: op, Site: site, Detail: "expected (), found " + describeValue(v)}
		}
		return nil
	}
	if ok, why := in.matches(id, v); !ok {
		detail := fmt.Sprintf("expected %s, found %s", in.b.Types.String(id), describeValue(v))
		if why != "" {
			detail = why
		}
		return &own.Error{Code: diag.OwnTypeMismatch, Op: op, Site: site, Detail: detail}
	}
	return nil
}

func (in *Interpreter) matches(id ast.TypeID, v own.Value) (bool, string) {
	ty := in.b.Types.Get(id)
	switch ty.Kind {
	case ast.TypeRef:
		elem := in.b.Types.Get(ty.Elem)
		if elem != nil && elem.Kind == ast.TypePath && elem.Name == "str" {
			_, lit := v.(own.Scalar[string])
			return lit || v.Kind() == own.KindShared, ""
		}
		if ty.Mut {
			return v.Kind() == own.KindExclusive, ""
		}
		return v.Kind() == own.KindShared, ""

	case ast.TypeTuple:
		tup, ok := v.(own.Tuple)
		if !ok || len(tup.Elems) != len(ty.Elems) {
			return false, ""
		}
		for i, el := range ty.Elems {
			if ok, why := in.matches(el, tup.Elems[i]); !ok {
				return false, why
			}
		}
		return true, ""

	case ast.TypeArray:
		arr, ok := v.(own.Array)
		if !ok {
			return false, ""
		}
		if n, err := strconv.Atoi(ty.LenText); err == nil && n != len(arr.Elems) {
			return false, fmt.Sprintf("expected an array of %d elements, found %d", n, len(arr.Elems))
		}
		for _, el := range arr.Elems {
			if ok, why := in.matches(ty.Elem, el); !ok {
				return false, why
			}
		}
		return true, ""
	}

	switch name := ty.Name; {
	case name == "String":
		return v.Kind() == own.KindOwned, ""
	case name == "()":
		return isUnit(v), ""
	case name == "bool":
		_, ok := v.(own.Scalar[bool])
		return ok, ""
	case name == "char":
		_, ok := v.(own.Scalar[rune])
		return ok, ""
	case name == "f32" || name == "f64":
		_, ok := v.(own.Scalar[float64])
		return ok, ""
	case wideInts[name]:
		n, ok := v.(own.Scalar[int64])
		if ok && name[0] == 'u' && n.V < 0 {
			return false, fmt.Sprintf("value %d does not fit in %s", n.V, name)
		}
		return ok, ""
	default:
		bounds, isInt := intRanges[name]
		if !isInt {
			return true, ""
		}
		n, ok := v.(own.Scalar[int64])
		if !ok {
			return false, ""
		}
		if n.V < bounds[0] || n.V > bounds[1] {
			return false, fmt.Sprintf("value %d does not fit in %s", n.V, name)
		}
		return true, ""
	}
}

// sameShape reports whether an assignment keeps the variable's type.
func sameShape(old, v own.Value) bool {
	switch o := old.(type) {
	case own.Tuple:
		t, ok := v.(own.Tuple)
		return ok && len(t.Elems) == len(o.Elems)
	case own.Array:
		a, ok := v.(own.Array)
		return ok && len(a.Elems) == len(o.Elems)
	case own.Scalar[int64]:
		_, ok := v.(own.Scalar[int64])
		return ok
	case own.Scalar[float64]:
		_, ok := v.(own.Scalar[float64])
		return ok
	case own.Scalar[bool]:
		_, ok := v.(own.Scalar[bool])
		return ok
	case own.Scalar[rune]:
		_, ok := v.(own.Scalar[rune])
		return ok
	case own.Scalar[string]:
		_, ok := v.(own.Scalar[string])
		return ok
	}
	return old.Kind() == v.Kind()
}

func isUnit(v own.Value) bool {
	t, ok := v.(own.Tuple)
	return ok && len(t.Elems) == 0
}

// isText reports whether v can be read as text.
func isText(v own.Value) bool {
	switch v.(type) {
	case *own.Owned, *own.Shared, *own.Exclusive, own.Scalar[string]:
		return true
	}
	return false
}

// describeValue names the type of v in diagnostics.
func describeValue(v own.Value) string {
	switch x := v.(type) {
	case nil:
		return "nothing"
	case *own.Owned:
		return "String"
	case *own.Shared:
		return "&String"
	case *own.Exclusive:
		return "&mut String"
	case own.Scalar[int64]:
		return "integer"
	case own.Scalar[float64]:
		return "float"
	case own.Scalar[bool]:
		return "bool"
	case own.Scalar[rune]:
		return "char"
	case own.Scalar[string]:
		return "&str"
	case own.Tuple:
		if len(x.Elems) == 0 {
			return "()"
		}
		s := "("
		for i, el := range x.Elems {
			if i > 0 {
				s += ", "
			}
			s += describeValue(el)
		}
		return s + ")"
	case own.Array:
		if len(x.Elems) == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%s; %d]", describeValue(x.Elems[0]), len(x.Elems))
	}
	return v.Kind().String()
}
