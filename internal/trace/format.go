package trace

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick by output path extension
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
)

// FormatEvent renders ev in format; FormatAuto renders text.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

// ndjson shares zap's JSON encoder so trace files and --log-level output
// use the same escaping and time layout.
var ndjson = zapcore.NewJSONEncoder(zapcore.EncoderConfig{
	TimeKey:     "time",
	MessageKey:  "name",
	LineEnding:  "\n",
	EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
	EncodeLevel: zapcore.LowercaseLevelEncoder,
})

type attrList []Attr

func (l attrList) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for _, a := range l {
		enc.AddString(a.Key, a.Value)
	}
	return nil
}

func formatNDJSON(ev *Event) []byte {
	fields := make([]zapcore.Field, 0, 7)
	fields = append(fields,
		zap.Uint64("seq", ev.Seq),
		zap.Stringer("kind", ev.Kind),
		zap.Stringer("scope", ev.Scope),
	)
	if ev.SpanID != 0 {
		fields = append(fields, zap.Uint64("span_id", ev.SpanID))
	}
	if ev.ParentID != 0 {
		fields = append(fields, zap.Uint64("parent_id", ev.ParentID))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	if len(ev.Attrs) > 0 {
		fields = append(fields, zap.Object("attrs", attrList(ev.Attrs)))
	}
	buf, err := ndjson.EncodeEntry(zapcore.Entry{Time: ev.Time, Message: ev.Name}, fields)
	if err != nil {
		return nil
	}
	defer buf.Free()
	return append([]byte(nil), buf.Bytes()...)
}

var arrows = [...]string{
	KindSpanBegin: "→ ",
	KindSpanEnd:   "← ",
	KindPoint:     "• ",
	KindHeartbeat: "♡ ",
}

// formatText renders `[seq] scope   → name (detail) {k=v, ...}`.
// Child events are indented by two spaces.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteByte('[')
	seq := strconv.FormatUint(ev.Seq, 10)
	sb.WriteString(strings.Repeat(" ", max(0, 6-len(seq))))
	sb.WriteString(seq)
	sb.WriteString("] ")
	scope := ev.Scope.String()
	sb.WriteString(scope)
	sb.WriteString(strings.Repeat(" ", max(1, 7-len(scope))))
	if ev.ParentID != 0 {
		sb.WriteString("  ")
	}
	if int(ev.Kind) < len(arrows) {
		sb.WriteString(arrows[ev.Kind])
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteByte(')')
	}
	for i, a := range ev.Attrs {
		if i == 0 {
			sb.WriteString(" {")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(a.Value)
	}
	if len(ev.Attrs) > 0 {
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
