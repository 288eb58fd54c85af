package own

import (
	"fmt"
	"strings"

	"ownlab/internal/diag"
	"ownlab/internal/source"
	"ownlab/internal/trace"
)

// EventKind identifies the type of ownership event.
type EventKind uint8

const (
	EvCreate EventKind = iota + 1
	EvMove
	EvCopy
	EvClone
	EvBorrowStart
	EvBorrowEnd
	EvRead
	EvWrite
	EvRelease
	EvDrop
	EvCall
	EvReturn
	EvScopeEnter
	EvScopeExit
	EvReject
)

var eventKindNames = [...]string{
	EvCreate:      "create",
	EvMove:        "move",
	EvCopy:        "copy",
	EvClone:       "clone",
	EvBorrowStart: "borrow_start",
	EvBorrowEnd:   "borrow_end",
	EvRead:        "read",
	EvWrite:       "write",
	EvRelease:     "release",
	EvDrop:        "drop",
	EvCall:        "call",
	EvReturn:      "return",
	EvScopeEnter:  "scope_enter",
	EvScopeExit:   "scope_exit",
	EvReject:      "reject",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) && eventKindNames[k] != "" {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is one entry of the ownership log.
// It is meant for display and recording and never affects checking.
type Event struct {
	Seq   uint64    `msgpack:"seq"`
	Kind  EventKind `msgpack:"kind"`
	Scope string    `msgpack:"scope"`
	Depth int       `msgpack:"depth"`

	// Binding is the binding the event is about; From is the source of a move or clone.
	Binding string `msgpack:"binding,omitempty"`
	From    string `msgpack:"from,omitempty"`

	Borrow     BorrowID   `msgpack:"borrow,omitempty"`
	BorrowKind BorrowKind `msgpack:"borrow_kind,omitempty"`

	Code   diag.Code   `msgpack:"code,omitempty"`
	Site   source.Span `msgpack:"site"`
	Detail string      `msgpack:"detail,omitempty"`
}

// String renders the event on a single line.
func (e Event) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s", strings.Repeat("  ", max(e.Depth, 0)), e.Kind)
	switch {
	case e.From != "" && e.Binding != "":
		fmt.Fprintf(&sb, " %s -> %s", e.From, e.Binding)
	case e.Binding != "":
		fmt.Fprintf(&sb, " %s", e.Binding)
	}
	if e.Borrow != NoBorrowID {
		fmt.Fprintf(&sb, " %s#%d", e.BorrowKind, e.Borrow)
	}
	if e.Kind == EvScopeEnter || e.Kind == EvScopeExit {
		fmt.Fprintf(&sb, " [%s]", e.Scope)
	}
	if e.Code != diag.UnknownCode {
		fmt.Fprintf(&sb, " %s", e.Code.ID())
	}
	if e.Detail != "" {
		fmt.Fprintf(&sb, " %q", e.Detail)
	}
	return sb.String()
}

// EventSink receives ownership events in order.
type EventSink interface {
	Record(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Record(ev Event) { f(ev) }

// Sinks fans events out to several sinks.
type Sinks []EventSink

func (s Sinks) Record(ev Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Record(ev)
		}
	}
}

// EventLog keeps every recorded event in memory.
type EventLog struct {
	events []Event
}

func (l *EventLog) Record(ev Event) {
	l.events = append(l.events, ev)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	return append([]Event(nil), l.events...)
}

func (l *EventLog) Len() int { return len(l.events) }

// Kinds lists event kinds in order; handy for assertions.
func (l *EventLog) Kinds() []EventKind {
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

// TraceSink forwards events to a tracer as op-level points.
type TraceSink struct {
	tracer trace.Tracer
	parent uint64
}

// NewTraceSink creates a sink parented under the given span id.
func NewTraceSink(t trace.Tracer, parent uint64) *TraceSink {
	return &TraceSink{tracer: t, parent: parent}
}

func (s *TraceSink) Record(ev Event) {
	if s == nil || s.tracer == nil || !s.tracer.Level().ShouldEmit(trace.ScopeOp) {
		return
	}
	attrs := make([]trace.Attr, 0, 6)
	attrs = append(attrs, trace.A("scope", ev.Scope), trace.A("site", ev.Site.String()))
	if ev.Binding != "" {
		attrs = append(attrs, trace.A("binding", ev.Binding))
	}
	if ev.From != "" {
		attrs = append(attrs, trace.A("from", ev.From))
	}
	if ev.Borrow != NoBorrowID {
		attrs = append(attrs, trace.A("borrow", fmt.Sprintf("%s#%d", ev.BorrowKind, ev.Borrow)))
	}
	if ev.Code != diag.UnknownCode {
		attrs = append(attrs, trace.A("code", ev.Code.ID()))
	}
	trace.Point(s.tracer, trace.ScopeOp, s.parent, "own."+ev.Kind.String(), ev.Detail, attrs...)
}
