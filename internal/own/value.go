package own

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a Value.
type Kind uint8

const (
	KindOwned Kind = iota + 1
	KindShared
	KindExclusive
	KindScalar
	KindTuple
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindShared:
		return "shared"
	case KindExclusive:
		return "exclusive"
	case KindScalar:
		return "scalar"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is anything a binding can hold.
// The set of implementations is closed.
type Value interface {
	Kind() Kind
	sealed()
}

// Copyable lists the bitwise-duplicable payloads a Scalar can carry.
// A string payload is a literal (&'static str), not an owned buffer.
type Copyable interface {
	~int64 | ~uint64 | ~float64 | ~bool | ~rune | ~string
}

// Scalar is a value that is copied on assignment and never tracked.
type Scalar[T Copyable] struct {
	V T
}

// Of wraps v into a Scalar.
func Of[T Copyable](v T) Scalar[T] {
	return Scalar[T]{V: v}
}

func (Scalar[T]) Kind() Kind { return KindScalar }
func (Scalar[T]) sealed()    {}

func (s Scalar[T]) String() string {
	switch v := any(s.V).(type) {
	case rune:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Unit is the empty tuple.
var Unit = Tuple{}

// Tuple groups values. It is copyable only when all elements are.
type Tuple struct {
	Elems []Value
}

func (Tuple) Kind() Kind { return KindTuple }
func (Tuple) sealed()    {}

// Array is a fixed-length sequence of scalars.
type Array struct {
	Elems []Value
}

func (Array) Kind() Kind { return KindArray }
func (Array) sealed()    {}

// IsCopyable reports whether v can be duplicated bitwise.
func IsCopyable(v Value) bool {
	switch x := v.(type) {
	case Tuple:
		for _, e := range x.Elems {
			if !IsCopyable(e) {
				return false
			}
		}
		return true
	case Array:
		for _, e := range x.Elems {
			if !IsCopyable(e) {
				return false
			}
		}
		return true
	case *Shared:
		return true
	case nil:
		return false
	default:
		return v.Kind() == KindScalar
	}
}

// Format renders v the way println! would, reading owned text through t.
func Format(v Value) (string, error) {
	switch x := v.(type) {
	case *Owned:
		return x.Text()
	case *Shared:
		return x.Text()
	case *Exclusive:
		return x.Text()
	case Tuple:
		return formatSeq("(", ")", x.Elems)
	case Array:
		return formatSeq("[", "]", x.Elems)
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func formatSeq(open, closing string, elems []Value) (string, error) {
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		s, err := Format(e)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	sb.WriteString(closing)
	return sb.String(), nil
}
