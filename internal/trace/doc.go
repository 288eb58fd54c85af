// Package trace provides structured tracing for ownlab runs.
//
// It follows a run through the driver phases (load, lex, parse, run), the
// individual scripts, and, at the most detailed level, every ownership
// operation the interpreter performs (create, move, borrow, release, ...).
//
// # Usage
//
//	ownlab run --trace-level=debug --trace-output=run.ndjson script.own
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: the most recent events, dumped when a command fails
//   - MultiTracer: fan-out to several tracers
//   - ZapTracer: forwards events to a *zap.Logger
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: everything into the ring, printed only if the command fails
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-file events
//   - LevelDebug: everything including ownership operations
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeDriver, "verify", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
//	ctx = trace.WithSpan(ctx, span) // later spans nest under "verify"
package trace
