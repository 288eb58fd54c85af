package interp

import (
	"context"
	"fmt"
	"io"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/heap"
	"ownlab/internal/own"
	"ownlab/internal/source"
	"ownlab/internal/trace"
)

// DefaultMaxDepth bounds recursion of script functions.
const DefaultMaxDepth = 256

type Options struct {
	// Stdout receives println! output; nil discards it.
	Stdout io.Writer
	// Sink receives every ownership event.
	Sink own.EventSink
	// Heap is the backing storage; a fresh heap is used when nil.
	Heap *heap.Heap
	// Tracer gets one span per script call and the ownership events as points.
	Tracer      trace.Tracer
	TraceParent uint64
	// Entry is the function to run, "main" by default.
	Entry    string
	MaxDepth int
}

type Result struct {
	Tracker *own.Tracker
	Calls   int
}

// Interpreter executes one parsed file against an own.Tracker.
type Interpreter struct {
	ctx     context.Context
	b       *ast.Builder
	opts    Options
	out     io.Writer
	tracker *own.Tracker
	globals *env
	fns     map[string]*function
	depth   int
	calls   int
	span    uint64
}

// function binds a script fn to its own.Func, built once.
type function struct {
	item *ast.FnItem
	fn   *own.Func
}

// Run executes the entry function of file. The returned error is the first
// ownership violation (an *own.Error) or ctx.Err(); the Result is valid in
// both cases so callers can inspect the heap and events up to the failure.
func Run(ctx context.Context, b *ast.Builder, file ast.FileID, opts Options) (*Result, error) {
	if opts.Entry == "" {
		opts.Entry = "main"
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}

	trackerOpts := []own.Option{own.WithSink(opts.Sink), own.WithHeap(opts.Heap)}
	span := trace.Begin(opts.Tracer, trace.ScopePass, "interp", opts.TraceParent)
	if opts.Tracer != nil {
		trackerOpts = append(trackerOpts, own.WithTracer(opts.Tracer, span.ID()))
	}

	in := &Interpreter{
		ctx:     ctx,
		b:       b,
		opts:    opts,
		out:     out,
		tracker: own.NewTracker(trackerOpts...),
		fns:     make(map[string]*function),
		span:    span.ID(),
	}
	in.globals = newEnv(nil, in.tracker.Root())

	err := in.run(file)
	if cerr := in.tracker.Root().Close(); cerr != nil && err == nil {
		err = cerr
	}
	span.WithAttr("calls", fmt.Sprint(in.calls)).End("")
	return &Result{Tracker: in.tracker, Calls: in.calls}, err
}

func (in *Interpreter) run(file ast.FileID) error {
	f := in.b.Files.Get(file)
	if f == nil {
		return fmt.Errorf("interp: unknown file %d", file)
	}
	var consts []ast.ItemID
	for _, id := range f.Items {
		if fn := in.b.Items.Fn(id); fn != nil {
			in.fns[fn.Name] = &function{item: fn}
			continue
		}
		consts = append(consts, id)
	}

	root := in.tracker.Root()
	for _, id := range consts {
		c := in.b.Items.Const(id)
		if c == nil {
			continue
		}
		if err := in.defineConst(in.globals, root, in.b.Items.Get(id).Span, c); err != nil {
			return err
		}
	}

	entry, ok := in.fns[in.opts.Entry]
	if !ok {
		return &own.Error{Code: diag.OwnUnresolvedSymbol, Op: "run", Name: in.opts.Entry, Site: f.Span, Detail: "no entry function"}
	}
	if len(entry.item.Params) != 0 {
		return &own.Error{Code: diag.OwnArityMismatch, Op: "run", Name: in.opts.Entry, Site: entry.item.NameSpan, Detail: "entry function takes no parameters"}
	}
	in.tracker.SetSite(entry.item.NameSpan)
	_, err := root.Call(in.function(entry))
	return err
}

// function returns the own.Func of a script fn.
func (in *Interpreter) function(f *function) *own.Func {
	if f.fn != nil {
		return f.fn
	}
	item := f.item
	params := make([]own.Param, len(item.Params))
	for i, p := range item.Params {
		params[i] = own.Param{Name: p.Name, Mut: p.Mut, Decl: p.Span}
	}
	f.fn = &own.Func{
		Name:   item.Name,
		Params: params,
		Body: func(callee *own.Scope, args []own.Value) (own.Value, error) {
			return in.callBody(item, callee, args)
		},
	}
	return f.fn
}

// callBody runs a function body directly in the callee scope: parameters and
// top-level locals share it, the trailing expression is evaluated there too.
func (in *Interpreter) callBody(item *ast.FnItem, callee *own.Scope, args []own.Value) (own.Value, error) {
	in.depth++
	in.calls++
	defer func() { in.depth-- }()
	if in.depth > in.opts.MaxDepth {
		return nil, &own.Error{Code: diag.OwnCallDepth, Op: "call", Name: item.Name, Site: in.tracker.Site(),
			Detail: fmt.Sprintf("more than %d nested calls", in.opts.MaxDepth)}
	}
	span := trace.Begin(in.opts.Tracer, trace.ScopePass, "fn "+item.Name, in.span)
	defer span.End("")

	e := newEnv(in.globals, callee)
	for i, p := range item.Params {
		e.define(p.Name, &variable{val: args[i], mut: p.Mut, decl: p.Span, scope: callee})
	}

	fr := &frame{item: item, scope: callee}
	block := in.b.Stmts.Block(item.Body)
	if block == nil {
		return own.Unit, nil
	}
	var result own.Value = own.Unit
	for _, st := range block.Stmts {
		if err := in.execStmt(e, fr, st); err != nil {
			return nil, err
		}
		if fr.returned {
			result = fr.ret
			break
		}
	}
	if !fr.returned && block.Tail.IsValid() {
		v, err := in.eval(&stmtCtx{in: in, block: callee}, e, block.Tail)
		if err != nil {
			return nil, err
		}
		result = v
	}

	site := in.b.Stmts.Get(item.Body).Span
	if fr.returned {
		site = fr.retSite
	} else if block.Tail.IsValid() {
		site = in.b.Exprs.Get(block.Tail).Span
	}
	if err := in.checkType(item.Result, result, site, "return"); err != nil {
		return nil, err
	}
	in.tracker.SetSite(site)
	return result, nil
}

// frame is the state of one executing function.
type frame struct {
	item     *ast.FnItem
	scope    *own.Scope
	returned bool
	ret      own.Value
	retSite  source.Span
}

func (in *Interpreter) checkCtx() error {
	if in.ctx == nil {
		return nil
	}
	return in.ctx.Err()
}
