package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"ownlab/internal/ast"
	"ownlab/internal/diag"
	"ownlab/internal/heap"
	"ownlab/internal/interp"
	"ownlab/internal/lesson"
	"ownlab/internal/lexer"
	"ownlab/internal/observ"
	"ownlab/internal/own"
	"ownlab/internal/parser"
	"ownlab/internal/replay"
	"ownlab/internal/source"
	"ownlab/internal/trace"
)

// DefaultMaxDiagnostics bounds the diagnostics kept per file.
const DefaultMaxDiagnostics = 100

// Driver runs scripts through the lex, parse and interpret pipeline.
type Driver struct {
	log    *zap.Logger
	tracer trace.Tracer
}

// New returns a Driver. Both arguments may be nil.
func New(log *zap.Logger, tracer trace.Tracer) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Driver{log: log, tracer: tracer}
}

// Request describes one run. Either Path or Source must be set; Name labels
// in-memory sources in diagnostics.
type Request struct {
	Path   string
	Name   string
	Source []byte

	// Stdout receives program output as it is produced.
	Stdout io.Writer
	// Sink receives ownership events in addition to Result.Events.
	Sink own.EventSink

	Entry          string
	MaxDepth       int
	MaxDiagnostics int
	// Record attaches a replay recording to the result.
	Record   bool
	Observer PhaseObserver
}

// Result is everything a run produced.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Bag     *diag.Bag
	Output  string
	Events  []own.Event
	// State is nil when the interpreter did not run.
	State  *Snapshot
	Calls  int
	Timing observ.Report
	// Err is the ownership or runtime error that stopped the program.
	// It is also reported in Bag.
	Err       error
	Recording *replay.Recording
}

// Code returns the code of the first error in Bag, or UnknownCode.
func (r *Result) Code() diag.Code {
	if r == nil || r.Bag == nil {
		return diag.UnknownCode
	}
	for _, d := range r.Bag.Items() {
		if d.Severity >= diag.SevError {
			return d.Code
		}
	}
	return diag.UnknownCode
}

// Failed reports whether the run produced errors.
func (r *Result) Failed() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

// Run loads, parses and interprets a single script. A non-nil error means
// the tool itself failed (I/O, cancellation); problems in the script are
// reported through Result.Bag.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	if req.MaxDiagnostics <= 0 {
		req.MaxDiagnostics = DefaultMaxDiagnostics
	}
	name := req.Path
	if name == "" {
		name = req.Name
	}
	span := trace.Begin(d.tracer, trace.ScopeFile, "run "+name, trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	p := &pipeline{d: d, timer: observ.NewTimer(), observer: req.Observer, path: name, parent: span.ID()}
	res := &Result{FileSet: source.NewFileSet(), Bag: diag.NewBag(req.MaxDiagnostics)}

	var fileID source.FileID
	var loadErr error
	p.phase(PhaseLoad, func() string {
		if req.Source != nil || req.Path == "" {
			fileID = res.FileSet.AddVirtual(name, req.Source)
			return "virtual"
		}
		fileID, loadErr = res.FileSet.Load(req.Path)
		return ""
	})
	if loadErr != nil {
		return nil, fmt.Errorf("load %s: %w", req.Path, loadErr)
	}
	res.File = res.FileSet.Get(fileID)

	var out bytes.Buffer
	stdout := io.Writer(&out)
	if req.Stdout != nil {
		stdout = io.MultiWriter(&out, req.Stdout)
	}
	log := &own.EventLog{}
	sinks := own.Sinks{log}
	if req.Sink != nil {
		sinks = append(sinks, req.Sink)
	}
	var recorder *replay.Recorder
	if req.Record {
		recorder = replay.NewRecorder(name, res.File.Hash)
		sinks = append(sinks, recorder)
	}

	runErr := p.run(ctx, res, fileID, interp.Options{
		Stdout:   stdout,
		Sink:     sinks,
		Entry:    req.Entry,
		MaxDepth: req.MaxDepth,
	})
	res.Output = out.String()
	res.Events = log.Events()
	res.Timing = p.timer.Report()
	if recorder != nil {
		res.Recording = recorder.Finish(res.Err)
	}
	if runErr != nil {
		return res, runErr
	}

	d.log.Debug("run finished",
		zap.String("path", name),
		zap.String("code", res.Code().ID()),
		zap.Int("events", len(res.Events)),
		zap.Int("calls", res.Calls),
		zap.Float64("total_ms", res.Timing.TotalMS),
	)
	return res, nil
}

// RunLesson runs an embedded or on-disk lesson from memory.
func (d *Driver) RunLesson(ctx context.Context, l lesson.Lesson, req Request) (*Result, error) {
	req.Path = ""
	req.Name = l.Path
	req.Source = l.Source
	return d.Run(ctx, req)
}

// VerifyLessons checks that every lesson passes or fails as it declares.
func (d *Driver) VerifyLessons(ctx context.Context, lessons []lesson.Lesson, jobs int) ([]lesson.Result, error) {
	span := trace.Begin(d.tracer, trace.ScopeDriver, "verify", trace.CurrentSpan(ctx).SpanID)
	defer span.End(fmt.Sprintf("lessons=%d", len(lessons)))
	ctx = trace.WithSpan(ctx, span)
	return lesson.Verify(ctx, lessons, func(ctx context.Context, l lesson.Lesson) (string, diag.Code, error) {
		res, err := d.RunLesson(ctx, l, Request{})
		if err != nil {
			return "", diag.UnknownCode, err
		}
		return res.Output, res.Code(), nil
	}, jobs)
}

type pipeline struct {
	d        *Driver
	timer    *observ.Timer
	observer PhaseObserver
	path     string
	parent   uint64
}

// phase times fn, wraps it in a trace span and notifies the observer.
// fn returns a note for the timing report.
func (p *pipeline) phase(name string, fn func() string) {
	p.observer.notify(PhaseEvent{Name: name, Path: p.path})
	span := trace.Begin(p.d.tracer, trace.ScopePass, name, p.parent)
	var note string
	elapsed := p.timer.Phase(name, func() string {
		note = fn()
		return note
	})
	span.End(note)
	p.observer.notify(PhaseEvent{Name: name, Path: p.path, Done: true, Elapsed: elapsed, Note: note})
}

// run parses the file and, when parsing succeeded, interprets it.
func (p *pipeline) run(ctx context.Context, res *Result, fileID source.FileID, opts interp.Options) error {
	var (
		builder *ast.Builder
		astFile ast.FileID
		err     error
	)
	p.phase(PhaseParse, func() string {
		builder, astFile, err = parseFile(res.FileSet, fileID, res.Bag)
		return fmt.Sprintf("diags=%d", res.Bag.Len())
	})
	if err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return nil
	}

	var toolErr error
	p.phase(PhaseRun, func() string {
		opts.Tracer = p.d.tracer
		opts.TraceParent = p.parent
		opts.Heap = heap.New(heap.WithTracer(p.d.tracer))
		r, runErr := interp.Run(ctx, builder, astFile, opts)
		if r != nil {
			res.State = takeSnapshot(r.Tracker)
			res.Calls = r.Calls
		}
		var oe *own.Error
		switch {
		case runErr == nil:
		case errors.As(runErr, &oe):
			res.Err = runErr
			res.Bag.Add(oe.Diagnostic())
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			toolErr = runErr
		default:
			toolErr = fmt.Errorf("interpret %s: %w", p.path, runErr)
		}
		return fmt.Sprintf("calls=%d", res.Calls)
	})
	return toolErr
}

func parseFile(fs *source.FileSet, fileID source.FileID, bag *diag.Bag) (*ast.Builder, ast.FileID, error) {
	maxErrors, err := safecast.Conv[uint](bag.Cap())
	if err != nil {
		return nil, ast.NoFileID, fmt.Errorf("max diagnostics overflow: %w", err)
	}
	reporter := &diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: reporter})
	builder := ast.NewBuilder(ast.Hints{})
	result := parser.ParseFile(lx, builder, parser.Options{
		Reporter:  reporter,
		MaxErrors: maxErrors,
	})
	return builder, result.File, nil
}
