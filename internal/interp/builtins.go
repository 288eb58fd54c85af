package interp

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// evalCall handles script functions, drop(x) and String::from / String::new.
func (in *Interpreter) evalCall(c *stmtCtx, e *env, id ast.ExprID) (own.Value, error) {
	call := in.b.Exprs.Call(id)
	site := in.b.Exprs.Get(id).Span

	if path := in.b.Exprs.Path(call.Callee); path != nil {
		return in.callPath(c, e, site, strings.Join(path.Segments, "::"), call.Args)
	}
	ident := in.b.Exprs.Ident(call.Callee)
	if ident == nil {
		return nil, &own.Error{Code: diag.OwnNotCallable, Op: "call", Site: in.b.Exprs.Get(call.Callee).Span}
	}
	name := ident.Name

	if v, ok := e.lookup(name); ok {
		return nil, &own.Error{Code: diag.OwnNotCallable, Op: "call", Name: name, Site: site,
			Prior: v.decl, PriorNote: "`" + name + "` has type " + describeValue(v.val)}
	}

	f, ok := in.fns[name]
	if !ok {
		if name == "drop" {
			return in.drop(c, e, site, call.Args)
		}
		return nil, &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "call", Name: name, Site: in.b.Exprs.Get(call.Callee).Span}
	}

	args, err := in.evalList(c, e, call.Args)
	if err != nil {
		return nil, err
	}
	if len(args) == len(f.item.Params) {
		for i, p := range f.item.Params {
			if err := in.checkType(p.Type, args[i], in.b.Exprs.Get(call.Args[i]).Span, "call "+name); err != nil {
				return nil, err
			}
		}
	}
	in.tracker.SetSite(site)
	return c.temp().Call(in.function(f), args...)
}

func (in *Interpreter) callPath(c *stmtCtx, e *env, site source.Span, path string, argIDs []ast.ExprID) (own.Value, error) {
	args, err := in.evalList(c, e, argIDs)
	if err != nil {
		return nil, err
	}
	in.tracker.SetSite(site)
	switch path {
	case "String::new":
		if len(args) != 0 {
			return nil, arity(path, site, 0, len(args))
		}
		return ownedValue(c.temp().Create(path, ""))
	case "String::from":
		if len(args) != 1 {
			return nil, arity(path, site, 1, len(args))
		}
		if !isText(args[0]) || args[0].Kind() == own.KindOwned {
			return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: "call", Name: path, Site: in.b.Exprs.Get(argIDs[0]).Span,
				Detail: "expected &str, found " + describeValue(args[0])}
		}
		text, err := own.Format(args[0])
		if err != nil {
			return nil, err
		}
		in.tracker.SetSite(site)
		return ownedValue(c.temp().Create(path, text))
	}
	return nil, &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "call", Name: path, Site: site}
}

// drop(x) releases an owned value early and retires an exclusive handle.
// Dropping a copyable value does nothing.
func (in *Interpreter) drop(c *stmtCtx, e *env, site source.Span, argIDs []ast.ExprID) (own.Value, error) {
	args, err := in.evalList(c, e, argIDs)
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, arity("drop", site, 1, len(args))
	}
	in.tracker.SetSite(site)
	switch x := args[0].(type) {
	case *own.Owned:
		if err := x.Drop(); err != nil {
			return nil, err
		}
	case *own.Exclusive:
		if err := x.Drop(); err != nil {
			return nil, err
		}
	}
	return own.Unit, nil
}

// evalMethod handles the String methods used by the lessons. The receiver
// is read in place: calling a method never moves it.
func (in *Interpreter) evalMethod(c *stmtCtx, e *env, id ast.ExprID) (own.Value, error) {
	mc := in.b.Exprs.MethodCall(id)
	site := in.b.Exprs.Get(id).Span

	recv, err := in.eval(c, e, mc.Receiver)
	if err != nil {
		return nil, err
	}
	args, err := in.evalList(c, e, mc.Args)
	if err != nil {
		return nil, err
	}
	in.tracker.SetSite(site)

	want := func(n int) error {
		if len(args) != n {
			return arity(mc.Name, site, n, len(args))
		}
		return nil
	}
	unknown := &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "method", Name: mc.Name, Site: mc.NameSpan,
		Detail: "no such method on " + describeValue(recv)}

	switch mc.Name {
	case "len", "capacity", "is_empty":
		if err := want(0); err != nil {
			return nil, err
		}
		var n int
		switch x := recv.(type) {
		case *own.Owned:
			n, err = lenOrCap(mc.Name, x.Len, x.Cap)
		case *own.Shared:
			n, err = lenOrCap(mc.Name, x.Len, x.Cap)
		case *own.Exclusive:
			n, err = lenOrCap(mc.Name, x.Len, x.Cap)
		case own.Scalar[string]:
			if mc.Name == "capacity" {
				return nil, unknown
			}
			n = len(x.V)
		case own.Array:
			if mc.Name == "capacity" {
				return nil, unknown
			}
			n = len(x.Elems)
		default:
			return nil, unknown
		}
		if err != nil {
			return nil, err
		}
		if mc.Name == "is_empty" {
			return own.Of(n == 0), nil
		}
		return own.Of(int64(n)), nil

	case "clone":
		if err := want(0); err != nil {
			return nil, err
		}
		switch recv.(type) {
		case *own.Owned, *own.Shared, *own.Exclusive:
			return ownedValue(c.temp().Clone(cloneName(recv), recv))
		}
		if own.IsCopyable(recv) {
			return recv, nil
		}
		return nil, unknown

	case "to_string", "to_owned":
		if err := want(0); err != nil {
			return nil, err
		}
		lit, ok := recv.(own.Scalar[string])
		if !ok {
			if !isText(recv) {
				return nil, unknown
			}
			return ownedValue(c.temp().Clone(cloneName(recv), recv))
		}
		return ownedValue(c.temp().Create(mc.Name, lit.V))

	case "push_str", "push":
		if err := want(1); err != nil {
			return nil, err
		}
		text, err := pushArg(mc.Name, args[0], in.b.Exprs.Get(mc.Args[0]).Span)
		if err != nil {
			return nil, err
		}
		in.tracker.SetSite(site)
		switch x := recv.(type) {
		case *own.Owned:
			return own.Unit, x.Append(text)
		case *own.Exclusive:
			return own.Unit, x.Append(text)
		case *own.Shared:
			return nil, &own.Error{Code: diag.OwnBorrowImmutable, Op: mc.Name, Name: x.Target(), Site: site,
				Detail: "cannot borrow data behind a `&` reference as mutable"}
		}
		return nil, unknown
	}
	return nil, unknown
}

func lenOrCap(method string, length, capacity func() (int, error)) (int, error) {
	if method == "capacity" {
		return capacity()
	}
	return length()
}

func cloneName(v own.Value) string {
	switch x := v.(type) {
	case *own.Owned:
		return x.Name() + ".clone()"
	case *own.Shared:
		return x.Target() + ".clone()"
	case *own.Exclusive:
		return x.Target() + ".clone()"
	}
	return "clone()"
}

func pushArg(method string, v own.Value, site source.Span) (string, error) {
	if method == "push" {
		ch, ok := v.(own.Scalar[rune])
		if !ok {
			return "", &own.Error{Code: diag.OwnTypeMismatch, Op: method, Site: site, Detail: "expected char, found " + describeValue(v)}
		}
		return string(ch.V), nil
	}
	if !isText(v) || v.Kind() == own.KindOwned {
		return "", &own.Error{Code: diag.OwnTypeMismatch, Op: method, Site: site, Detail: "expected &str, found " + describeValue(v)}
	}
	return own.Format(v)
}

// evalMacro handles println!, print! and format!.
func (in *Interpreter) evalMacro(c *stmtCtx, e *env, id ast.ExprID) (own.Value, error) {
	m := in.b.Exprs.Macro(id)
	site := in.b.Exprs.Get(id).Span
	switch m.Name {
	case "println", "print", "format":
	default:
		return nil, &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "macro", Name: m.Name + "!", Site: site}
	}

	var text string
	if len(m.Args) > 0 {
		lit := in.b.Exprs.Literal(m.Args[0])
		if lit == nil || lit.Kind != ast.LitString {
			return nil, &own.Error{Code: diag.OwnTypeMismatch, Op: m.Name + "!", Site: in.b.Exprs.Get(m.Args[0]).Span,
				Detail: "format argument must be a string literal"}
		}
		var err error
		if text, err = in.format(c, e, site, lit.Str, m.Args[1:]); err != nil {
			return nil, err
		}
	}

	in.tracker.SetSite(site)
	switch m.Name {
	case "format":
		return ownedValue(c.temp().Create("format!", text))
	case "println":
		text += "\n"
	}
	if _, err := io.WriteString(in.out, text); err != nil {
		return nil, fmt.Errorf("interp: write output: %w", err)
	}
	return own.Unit, nil
}

// format fills `{}` placeholders from args in order. `{name}` reads a
// variable, `{:?}` is treated as `{}`, and `{{` / `}}` are literal braces.
func (in *Interpreter) format(c *stmtCtx, e *env, site source.Span, pattern string, argIDs []ast.ExprID) (string, error) {
	var sb strings.Builder
	next := 0
	for i := 0; i < len(pattern); {
		ch := pattern[i]
		switch {
		case ch == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			sb.WriteByte('{')
			i += 2
		case ch == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			sb.WriteByte('}')
			i += 2
		case ch == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return "", &own.Error{Code: diag.OwnTypeMismatch, Op: "format", Site: site, Detail: "unclosed `{` in format string"}
			}
			name, _, _ := strings.Cut(pattern[i+1:i+end], ":")
			var v own.Value
			var argSite source.Span
			if name == "" {
				if next >= len(argIDs) {
					return "", arity("format", site, next+1, len(argIDs))
				}
				val, err := in.eval(c, e, argIDs[next])
				if err != nil {
					return "", err
				}
				v, argSite = val, in.b.Exprs.Get(argIDs[next]).Span
				next++
			} else {
				vr, ok := e.lookup(name)
				if !ok {
					return "", &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "format", Name: name, Site: site}
				}
				v, argSite = vr.val, site
			}
			in.tracker.SetSite(argSite)
			s, err := own.Format(v)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			i += end + 1
		default:
			_, size := utf8.DecodeRuneInString(pattern[i:])
			sb.WriteString(pattern[i : i+size])
			i += size
		}
	}
	if next != len(argIDs) {
		return "", &own.Error{Code: diag.OwnArityMismatch, Op: "format", Site: site,
			Detail: fmt.Sprintf("%d placeholder(s) but %d argument(s)", next, len(argIDs))}
	}
	return sb.String(), nil
}

func arity(name string, site source.Span, want, got int) error {
	return &own.Error{Code: diag.OwnArityMismatch, Op: "call", Name: name, Site: site,
		Detail: fmt.Sprintf("expected %d argument(s), found %d", want, got)}
}

// ownedValue keeps a failed constructor from leaking a typed nil into own.Value.
func ownedValue(o *own.Owned, err error) (own.Value, error) {
	if err != nil {
		return nil, err
	}
	return o, nil
}
