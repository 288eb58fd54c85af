package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ownlab/internal/own"
	"ownlab/internal/source"
)

const eventKindWidth = 13

func eventColor(kind own.EventKind, enabled bool) *color.Color {
	switch kind {
	case own.EvCreate, own.EvClone, own.EvCopy:
		return newColor(enabled, color.FgGreen)
	case own.EvMove, own.EvReturn:
		return newColor(enabled, color.FgYellow)
	case own.EvBorrowStart, own.EvBorrowEnd:
		return newColor(enabled, color.FgCyan)
	case own.EvRelease, own.EvDrop:
		return newColor(enabled, color.FgMagenta)
	case own.EvReject:
		return newColor(enabled, color.FgRed, color.Bold)
	case own.EvScopeEnter, own.EvScopeExit, own.EvCall:
		return newColor(enabled, color.Faint)
	default:
		return newColor(enabled)
	}
}

// Events writes the ownership log one event per line, indented by scope depth.
func Events(w io.Writer, events []own.Event, fs *source.FileSet, opts EventOpts) {
	for _, ev := range events {
		if ev.Kind == own.EvRead && !opts.Reads {
			continue
		}
		fmt.Fprintln(w, EventLine(ev, fs, opts))
	}
}

// EventLine renders a single event. The kind column is padded in display
// cells so that bindings line up across nesting levels.
func EventLine(ev own.Event, fs *source.FileSet, opts EventOpts) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%4d ", ev.Seq)
	sb.WriteString(strings.Repeat("  ", max(ev.Depth, 0)))
	kind := runewidth.FillRight(ev.Kind.String(), eventKindWidth)
	sb.WriteString(eventColor(ev.Kind, opts.Color).Sprint(kind))

	switch {
	case ev.From != "" && ev.Binding != "":
		fmt.Fprintf(&sb, " %s -> %s", ev.From, ev.Binding)
	case ev.Binding != "":
		sb.WriteString(" " + ev.Binding)
	}
	if ev.Borrow != own.NoBorrowID {
		fmt.Fprintf(&sb, " %s#%d", ev.BorrowKind, ev.Borrow)
	}
	if ev.Kind == own.EvScopeEnter || ev.Kind == own.EvScopeExit {
		fmt.Fprintf(&sb, " [%s]", ev.Scope)
	}
	if ev.Code != 0 {
		sb.WriteString(" " + ev.Code.ID())
	}
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " %q", ev.Detail)
	}
	if opts.Sites {
		if pos := position(fs, ev.Site, opts.PathMode); pos != "" {
			sb.WriteString("  @ " + pos)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
