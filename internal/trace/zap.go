package trace

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapTracer logs events at debug level on a "trace" child logger.
type ZapTracer struct {
	gate
	log *zap.Logger
}

// NewZapTracer wraps log; nil means a no-op logger.
func NewZapTracer(log *zap.Logger, level Level) *ZapTracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapTracer{gate: gate{level}, log: log.Named("trace")}
}

func (t *ZapTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	ce := t.log.Check(zapcore.DebugLevel, ev.Name)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, 5+len(ev.Attrs))
	fields = append(fields, zap.Stringer("kind", ev.Kind), zap.Stringer("scope", ev.Scope))
	if ev.SpanID != 0 {
		fields = append(fields, zap.Uint64("span", ev.SpanID))
	}
	if ev.ParentID != 0 {
		fields = append(fields, zap.Uint64("parent", ev.ParentID))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	for _, a := range ev.Attrs {
		fields = append(fields, zap.String(a.Key, a.Value))
	}
	ce.Write(fields...)
}

// Flush syncs the logger. Sync on a terminal stderr fails with EINVAL on
// some platforms, so its error is dropped.
func (t *ZapTracer) Flush() error {
	_ = t.log.Sync()
	return nil
}

func (t *ZapTracer) Close() error { return t.Flush() }
