package interp

import (
	"fmt"
	"math"
	"strings"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// eval evaluates an expression. Identifiers yield the value they hold
// without moving it: the consumer (let, call, return, `+`) decides whether
// an owned value moves, so reads such as println! arguments and method
// receivers never move.
func (in *Interpreter) eval(c *stmtCtx, e *env, id ast.ExprID) (own.Value, error) {
	expr := in.b.Exprs.Get(id)
	if expr == nil {
		return nil, fmt.Errorf("interp: unknown expression %d", id)
	}
	site := expr.Span
	in.tracker.SetSite(site)

	switch expr.Kind {
	case ast.ExprIdent:
		name := in.b.Exprs.Ident(id).Name
		v, ok := e.lookup(name)
		if !ok {
			if _, isFn := in.fns[name]; isFn {
				return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "read", Name: name, Site: site, Detail: "functions are not values"}
			}
			return nil, &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "read", Name: name, Site: site}
		}
		return v.val, nil

	case ast.ExprLit:
		return literalValue(in.b.Exprs.Literal(id)), nil

	case ast.ExprPath:
		path := strings.Join(in.b.Exprs.Path(id).Segments, "::")
		return nil, &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "read", Name: path, Site: site, Detail: "paths can only be called"}

	case ast.ExprRef:
		return in.evalRef(c, e, id)

	case ast.ExprUnary:
		u := in.b.Exprs.Unary(id)
		v, err := in.eval(c, e, u.Operand)
		if err != nil {
			return nil, err
		}
		in.tracker.SetSite(site)
		return unary(u.Op, v, site)

	case ast.ExprBinary:
		bin := in.b.Exprs.Binary(id)
		l, err := in.eval(c, e, bin.Left)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(c, e, bin.Right)
		if err != nil {
			return nil, err
		}
		in.tracker.SetSite(site)
		if owned, ok := l.(*own.Owned); ok && bin.Op == ast.BinaryAdd {
			return in.concat(c, owned, r)
		}
		return binary(bin.Op, l, r, site)

	case ast.ExprCall:
		return in.evalCall(c, e, id)

	case ast.ExprMethodCall:
		return in.evalMethod(c, e, id)

	case ast.ExprMacro:
		return in.evalMacro(c, e, id)

	case ast.ExprTuple:
		elems, err := in.evalList(c, e, in.b.Exprs.Tuple(id).Elems)
		if err != nil {
			return nil, err
		}
		return own.Tuple{Elems: elems}, nil

	case ast.ExprArray:
		elems, err := in.evalList(c, e, in.b.Exprs.Array(id).Elems)
		if err != nil {
			return nil, err
		}
		for i, el := range elems {
			if el.Kind() != own.KindScalar {
				return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "array", Site: in.b.Exprs.Get(in.b.Exprs.Array(id).Elems[i]).Span,
					Detail: "arrays hold only scalar values, found " + describeValue(el)}
			}
		}
		return own.Array{Elems: elems}, nil

	case ast.ExprTupleIndex:
		ti := in.b.Exprs.TupleIndex(id)
		v, err := in.eval(c, e, ti.Target)
		if err != nil {
			return nil, err
		}
		tup, ok := v.(own.Tuple)
		if !ok {
			return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "index", Site: site, Detail: "expected a tuple, found " + describeValue(v)}
		}
		if ti.Index >= len(tup.Elems) {
			return nil, &own.Error{Code: diag.OwnIndexOutOfBounds, Op: "index", Site: site,
				Detail: fmt.Sprintf("tuple has %d elements, index is %d", len(tup.Elems), ti.Index)}
		}
		return tup.Elems[ti.Index], nil

	case ast.ExprIndex:
		ix := in.b.Exprs.Index(id)
		v, err := in.eval(c, e, ix.Target)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(c, e, ix.Index)
		if err != nil {
			return nil, err
		}
		arr, ok := v.(own.Array)
		if !ok {
			return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "index", Site: site, Detail: "expected an array, found " + describeValue(v)}
		}
		n, ok := idx.(own.Scalar[int64])
		if !ok {
			return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "index", Site: in.b.Exprs.Get(ix.Index).Span, Detail: "array index must be an integer"}
		}
		if n.V < 0 || n.V >= int64(len(arr.Elems)) {
			return nil, &own.Error{Code: diag.OwnIndexOutOfBounds, Op: "index", Site: site,
				Detail: fmt.Sprintf("the len is %d but the index is %d", len(arr.Elems), n.V)}
		}
		return arr.Elems[n.V], nil

	case ast.ExprGroup:
		return in.eval(c, e, in.b.Exprs.Group(id).Inner)
	}
	return nil, fmt.Errorf("interp: unsupported expression kind %d", expr.Kind)
}

func (in *Interpreter) evalList(c *stmtCtx, e *env, ids []ast.ExprID) ([]own.Value, error) {
	out := make([]own.Value, len(ids))
	for i, id := range ids {
		v, err := in.eval(c, e, id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// evalRef handles `&x` and `&mut x`. Borrows of owned values are taken in
// the statement's temporary scope; a let extends them to its block.
// References to scalars are modelled as copies. Taking a reference through
// an exclusive handle reborrows it.
func (in *Interpreter) evalRef(c *stmtCtx, e *env, id ast.ExprID) (own.Value, error) {
	ref := in.b.Exprs.Ref(id)
	site := in.b.Exprs.Get(id).Span

	var v own.Value
	var err error
	if u := in.b.Exprs.Unary(ref.Operand); u != nil && u.Op == ast.UnaryDeref {
		// &*r and &mut *r reborrow through r
		v, err = in.eval(c, e, u.Operand)
	} else {
		v, err = in.eval(c, e, ref.Operand)
	}
	if err != nil {
		return nil, err
	}
	in.tracker.SetSite(site)

	switch x := v.(type) {
	case *own.Owned:
		if ref.Mut {
			b, err := c.temp().BorrowExclusive(x)
			if err != nil {
				return nil, err
			}
			return b, nil
		}
		b, err := c.temp().BorrowShared(x)
		if err != nil {
			return nil, err
		}
		return b, nil
	case *own.Shared:
		if ref.Mut {
			return nil, &own.Error{Code: diag.OwnBorrowImmutable, Op: "borrow &mut", Name: x.Target(), Site: site,
				Detail: "cannot borrow as mutable through a `&` reference"}
		}
		return x, nil
	case *own.Exclusive:
		b, err := c.temp().Reborrow(x)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return v, nil
	}
}

// concat implements `s + &t`: s moves into the result and t is appended.
func (in *Interpreter) concat(c *stmtCtx, s *own.Owned, r own.Value) (own.Value, error) {
	site := in.tracker.Site()
	if !isText(r) || r.Kind() == own.KindOwned {
		return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "+", Name: s.Name(), Site: site,
			Detail: "expected &str or &String on the right of `+`, found " + describeValue(r)}
	}
	text, err := own.Format(r)
	if err != nil {
		return nil, err
	}
	res, err := c.temp().Move(s.Name()+" + ..", s, own.Mut())
	if err != nil {
		return nil, err
	}
	if err := res.Append(text); err != nil {
		return nil, err
	}
	return res, nil
}

func literalValue(lit *ast.ExprLitData) own.Value {
	switch lit.Kind {
	case ast.LitFloat:
		return own.Of(lit.Float)
	case ast.LitBool:
		return own.Of(lit.Bool)
	case ast.LitChar:
		return own.Of(lit.Char)
	case ast.LitString:
		return own.Of(lit.Str)
	default:
		return own.Of(lit.Int)
	}
}

func unary(op ast.UnaryOp, v own.Value, site source.Span) (own.Value, error) {
	switch op {
	case ast.UnaryNeg:
		switch x := v.(type) {
		case own.Scalar[int64]:
			return own.Of(-x.V), nil
		case own.Scalar[float64]:
			return own.Of(-x.V), nil
		}
	case ast.UnaryNot:
		if x, ok := v.(own.Scalar[bool]); ok {
			return own.Of(!x.V), nil
		}
	case ast.UnaryDeref:
		switch v.(type) {
		case *own.Shared, *own.Exclusive:
			return v, nil
		}
		if v.Kind() == own.KindScalar {
			return v, nil
		}
		return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "deref", Site: site, Detail: "cannot dereference " + describeValue(v)}
	}
	return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "unary", Site: site, Detail: "cannot apply operator to " + describeValue(v)}
}

func binary(op ast.BinaryOp, l, r own.Value, site source.Span) (own.Value, error) {
	mismatch := func() error {
		return &own.Error{Code: diag.OwnTypeMismatch, Op: op.String(), Site: site,
			Detail: fmt.Sprintf("cannot apply `%s` to %s and %s", op, describeValue(l), describeValue(r))}
	}
	switch a := l.(type) {
	case own.Scalar[int64]:
		b, ok := r.(own.Scalar[int64])
		if !ok {
			return nil, mismatch()
		}
		if (op == ast.BinaryDiv || op == ast.BinaryRem) && b.V == 0 {
			return nil, &own.Error{Code: diag.OwnDivisionByZero, Op: op.String(), Site: site}
		}
		switch op {
		case ast.BinaryAdd:
			return own.Of(a.V + b.V), nil
		case ast.BinarySub:
			return own.Of(a.V - b.V), nil
		case ast.BinaryMul:
			return own.Of(a.V * b.V), nil
		case ast.BinaryDiv:
			return own.Of(a.V / b.V), nil
		default:
			return own.Of(a.V % b.V), nil
		}
	case own.Scalar[float64]:
		b, ok := r.(own.Scalar[float64])
		if !ok {
			return nil, mismatch()
		}
		switch op {
		case ast.BinaryAdd:
			return own.Of(a.V + b.V), nil
		case ast.BinarySub:
			return own.Of(a.V - b.V), nil
		case ast.BinaryMul:
			return own.Of(a.V * b.V), nil
		case ast.BinaryDiv:
			return own.Of(a.V / b.V), nil
		default:
			return own.Of(math.Mod(a.V, b.V)), nil
		}
	}
	return nil, mismatch()
}
