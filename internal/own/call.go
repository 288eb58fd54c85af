package own

import (
	"fmt"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// Param describes one parameter of a Func.
type Param struct {
	Name string
	Mut  bool
	// Decl is the parameter's name in the source, if any.
	Decl source.Span
}

// Fn is a callee body. It runs inside its own scope; whatever it does not
// return is released when that scope closes.
type Fn func(callee *Scope, args []Value) (Value, error)

// Func is a callable with pass-by-value parameters.
type Func struct {
	Name   string
	Params []Param
	Body   Fn
}

// Call runs fn in a fresh child scope of s.
//
// Owned arguments move into the callee, scalars are copied, shared borrows
// are passed through and exclusive handles are reborrowed until the callee
// returns. An owned result moves back into s. A borrow result is
// rejected when it refers to a value owned by the callee. The callee scope is
// closed on every exit path.
func (s *Scope) Call(fn *Func, args ...Value) (ret Value, err error) {
	if cerr := s.checkOpen("call " + fn.Name); cerr != nil {
		return nil, s.t.reject(s, cerr)
	}
	if len(args) != len(fn.Params) {
		return nil, s.t.reject(s, &Error{
			Code: diag.OwnArityMismatch, Op: "call", Name: fn.Name, Site: s.t.site,
			Detail: fmt.Sprintf("expected %d argument(s), found %d", len(fn.Params), len(args)),
		})
	}
	s.emit(Event{Kind: EvCall, Binding: fn.Name})
	callee := s.t.newScope(fn.Name, s, true)
	defer func() {
		if cerr := callee.Close(); cerr != nil && err == nil {
			ret, err = nil, cerr
		}
	}()

	bound := make([]Value, len(args))
	for i, p := range fn.Params {
		v, berr := callee.bindParam(p, args[i])
		if berr != nil {
			return nil, berr
		}
		bound[i] = v
	}

	var res Value = Unit
	if fn.Body != nil {
		out, berr := fn.Body(callee, bound)
		if berr != nil {
			return nil, berr
		}
		if out != nil {
			res = out
		}
	}

	ret, err = s.receive(callee, fn.Name, res)
	if err != nil {
		return nil, err
	}
	s.emit(Event{Kind: EvReturn, Binding: fn.Name})
	return ret, nil
}

func (s *Scope) bindParam(p Param, arg Value) (Value, error) {
	switch x := arg.(type) {
	case *Owned:
		return s.Move(p.Name, x, MutIf(p.Mut), DeclaredAt(p.Decl))
	case *Shared:
		if err := x.check("call"); err != nil {
			return nil, s.t.reject(s, err)
		}
		s.emit(Event{Kind: EvCopy, Binding: p.Name, Borrow: x.id, BorrowKind: BorrowShared})
		return x, nil
	case *Exclusive:
		// Passing a handle reborrows it for the duration of the call, so a
		// second argument through the same handle is a conflict.
		child, err := s.Reborrow(x)
		if err != nil {
			return nil, err
		}
		s.t.handles[child.h].name = p.Name
		s.emit(Event{Kind: EvMove, Binding: p.Name, Borrow: x.id, BorrowKind: BorrowExclusive})
		return child, nil
	default:
		return s.Let(p.Name, arg, MutIf(p.Mut), DeclaredAt(p.Decl))
	}
}

// receive transfers a callee result into s.
func (s *Scope) receive(callee *Scope, fnName string, v Value) (Value, error) {
	switch x := v.(type) {
	case *Owned:
		return s.Move(fnName+"()", x)
	case *Shared:
		if err := s.receiveBorrow(callee, fnName, x.id, x.binding); err != nil {
			return nil, err
		}
		return x, nil
	case *Exclusive:
		if err := s.receiveBorrow(callee, fnName, x.id, x.binding); err != nil {
			return nil, err
		}
		s.adoptExclusive(callee, x)
		return x, nil
	case Tuple:
		out := Tuple{Elems: make([]Value, len(x.Elems))}
		for i, e := range x.Elems {
			r, err := s.receive(callee, fnName, e)
			if err != nil {
				return nil, err
			}
			out.Elems[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (s *Scope) receiveBorrow(callee *Scope, fnName string, id BorrowID, target BindingID) error {
	b := s.t.binding(target)
	if s.t.nested(b.scope, callee.id) {
		return s.t.reject(s, &Error{
			Code: diag.OwnDanglingReference, Op: "return", Name: b.name, Site: s.t.site,
			Prior: b.declared, PriorNote: fmt.Sprintf("`%s` is released when `%s` returns", b.name, fnName),
		})
	}
	return asError(s.keepBorrow(id, target, "return"))
}

// asError avoids wrapping a nil *Error into a non-nil error.
func asError(err *Error) error {
	if err == nil {
		return nil
	}
	return err
}
