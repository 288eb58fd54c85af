package interp

import (
	"fmt"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// stmtCtx owns the temporary scope of one statement. Temporaries and the
// borrows taken while evaluating the statement live there and are released
// when the statement ends. The scope is opened on first use.
type stmtCtx struct {
	in    *Interpreter
	block *own.Scope
	tmp   *own.Scope
	// direct evaluates in block itself (function tail expressions).
	direct bool
}

func (c *stmtCtx) temp() *own.Scope {
	if c.direct {
		return c.block
	}
	if c.tmp == nil {
		c.tmp = c.block.Enter("temp")
	}
	return c.tmp
}

func (c *stmtCtx) close(err *error) {
	if c.tmp == nil {
		return
	}
	if cerr := c.tmp.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
	c.tmp = nil
}

func (in *Interpreter) execStmt(e *env, fr *frame, id ast.StmtID) (err error) {
	if err := in.checkCtx(); err != nil {
		return err
	}
	st := in.b.Stmts.Get(id)
	in.tracker.SetSite(st.Span)

	switch st.Kind {
	case ast.StmtBlock:
		scope := e.scope.Enter("block")
		defer func() {
			if cerr := scope.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return in.execBlock(newEnv(e, scope), fr, in.b.Stmts.Block(id))

	case ast.StmtLet:
		let := in.b.Stmts.Let(id)
		c := &stmtCtx{in: in, block: e.scope}
		defer c.close(&err)
		v, err := in.eval(c, e, let.Value)
		if err != nil {
			return err
		}
		if err := in.checkType(let.Type, v, in.b.Exprs.Get(let.Value).Span, "let"); err != nil {
			return err
		}
		in.tracker.SetSite(st.Span)
		if !let.Tuple {
			return in.bindName(e, let.Names[0], v)
		}
		tup, ok := v.(own.Tuple)
		if !ok || len(tup.Elems) != len(let.Names) {
			return &own.Error{Code: diag.OwnTypeMismatch, Op: "let", Site: st.Span,
				Detail: fmt.Sprintf("expected a tuple with %d elements, found %s", len(let.Names), describeValue(v))}
		}
		for i, name := range let.Names {
			if err := in.bindName(e, name, tup.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case ast.StmtConst:
		return in.defineConst(e, e.scope, st.Span, in.b.Stmts.Const(id))

	case ast.StmtAssign:
		a := in.b.Stmts.Assign(id)
		c := &stmtCtx{in: in, block: e.scope}
		defer c.close(&err)
		return in.assign(c, e, st.Span, a)

	case ast.StmtReturn:
		ret := in.b.Stmts.Return(id)
		c := &stmtCtx{in: in, block: e.scope}
		defer c.close(&err)
		var v own.Value = own.Unit
		if ret.Value.IsValid() {
			if v, err = in.eval(c, e, ret.Value); err != nil {
				return err
			}
		}
		// the value must survive every scope between here and the frame
		in.tracker.SetSite(st.Span)
		if v, err = fr.scope.Let("return", v); err != nil {
			return err
		}
		fr.returned, fr.ret, fr.retSite = true, v, st.Span
		return nil

	case ast.StmtExpr:
		c := &stmtCtx{in: in, block: e.scope}
		defer c.close(&err)
		expr := in.b.Stmts.Expr(id).Expr
		v, err := in.eval(c, e, expr)
		if err != nil || !in.isPlace(expr) {
			return err
		}
		// `s;` moves s into the statement's temporary, which drops it
		_, err = c.temp().Let("_", v)
		return err
	}
	return nil
}

// isPlace reports whether id names a variable, possibly parenthesized.
func (in *Interpreter) isPlace(id ast.ExprID) bool {
	for {
		switch in.b.Exprs.Get(id).Kind {
		case ast.ExprIdent:
			return true
		case ast.ExprGroup:
			id = in.b.Exprs.Group(id).Inner
		default:
			return false
		}
	}
}

// execBlock runs the statements of a nested block; a trailing expression is
// evaluated for its effects.
func (in *Interpreter) execBlock(e *env, fr *frame, block *ast.BlockStmt) (err error) {
	for _, st := range block.Stmts {
		if err := in.execStmt(e, fr, st); err != nil {
			return err
		}
		if fr.returned {
			return nil
		}
	}
	if block.Tail.IsValid() {
		c := &stmtCtx{in: in, block: e.scope}
		defer c.close(&err)
		_, err = in.eval(c, e, block.Tail)
	}
	return err
}

// bindName binds v under name in the current block. `_` binds nothing and
// leaves v where it is.
func (in *Interpreter) bindName(e *env, name ast.LetName, v own.Value) error {
	if name.Name == "" {
		return nil
	}
	bound, err := e.scope.Let(name.Name, v, own.MutIf(name.Mut), own.DeclaredAt(name.Span))
	if err != nil {
		return err
	}
	e.define(name.Name, &variable{val: bound, mut: name.Mut, decl: name.Span, scope: e.scope})
	return nil
}

func (in *Interpreter) defineConst(e *env, scope *own.Scope, span source.Span, c *ast.ConstItem) (err error) {
	in.tracker.SetSite(span)
	ctx := &stmtCtx{in: in, block: scope}
	defer ctx.close(&err)
	v, err := in.eval(ctx, e, c.Value)
	if err != nil {
		return err
	}
	if !own.IsCopyable(v) || v.Kind() == own.KindShared {
		return &own.Error{Code: diag.OwnTypeMismatch, Op: "const", Name: c.Name, Site: in.b.Exprs.Get(c.Value).Span,
			Detail: "constants hold only scalar values, found " + describeValue(v)}
	}
	if err := in.checkType(c.Type, v, in.b.Exprs.Get(c.Value).Span, "const"); err != nil {
		return err
	}
	in.tracker.SetSite(span)
	bound, err := scope.Let(c.Name, v)
	if err != nil {
		return err
	}
	e.define(c.Name, &variable{val: bound, decl: c.NameSpan, scope: scope, isConst: true})
	return nil
}

// assign replaces the value of a mutable variable. An owned value that is
// still live is dropped first; the new value is bound in the variable's
// own scope so it lives as long as the variable.
func (in *Interpreter) assign(c *stmtCtx, e *env, site source.Span, a *ast.AssignStmt) error {
	ident := in.b.Exprs.Ident(a.Target)
	if ident == nil {
		return &own.Error{Code: diag.OwnTypeMismatch, Op: "assign", Site: in.b.Exprs.Get(a.Target).Span,
			Detail: "only variables can be assigned to"}
	}
	target := in.b.Exprs.Get(a.Target).Span
	v, ok := e.lookup(ident.Name)
	if !ok {
		return &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "assign", Name: ident.Name, Site: target}
	}
	if v.isConst {
		return &own.Error{Code: diag.OwnAssignImmutable, Op: "assign", Name: ident.Name, Site: target,
			Prior: v.decl, PriorNote: "constant declared here"}
	}
	if !v.mut {
		return &own.Error{Code: diag.OwnAssignImmutable, Op: "assign", Name: ident.Name, Site: target,
			Prior: v.decl, PriorNote: fmt.Sprintf("consider making this binding mutable: `mut %s`", ident.Name),
			Insert: "mut "}
	}

	val, err := in.eval(c, e, a.Value)
	if err != nil {
		return err
	}
	if !sameShape(v.val, val) {
		return &own.Error{Code: diag.OwnTypeMismatch, Op: "assign", Name: ident.Name, Site: in.b.Exprs.Get(a.Value).Span,
			Detail: fmt.Sprintf("expected %s, found %s", describeValue(v.val), describeValue(val))}
	}

	in.tracker.SetSite(site)
	if old, ok := v.val.(*own.Owned); ok && old.State().Live() {
		if err := old.Drop(); err != nil {
			return err
		}
	}
	bound, err := v.scope.Let(ident.Name, val, own.Mut())
	if err != nil {
		return err
	}
	v.val = bound
	return nil
}
