package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"ownlab/internal/source"
)

// line is one rendered `severity CODE path:line:col message` entry.
type line struct {
	sev  string
	code string
	path string
	row  uint32
	col  uint32
	msg  string
}

func (l line) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.sev, l.code, l.path, l.row, l.col, l.msg)
}

// FormatGoldenDiagnostics renders one line per diagnostic, and per note when
// includeNotes is set, sorted by location so golden files stay stable.
// Spans outside fs are skipped.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	lines := renderLines(diags, fs, includeNotes)
	slices.SortStableFunc(lines, func(a, b line) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.row, b.row),
			cmp.Compare(a.col, b.col),
			cmp.Compare(a.sev, b.sev),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})
	return join(lines)
}

// FormatShortDiagnostics is the golden form in report order, used by
// `--format short`.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return join(renderLines(diags, fs, includeNotes))
}

func renderLines(diags []Diagnostic, fs *source.FileSet, includeNotes bool) []line {
	if fs == nil {
		return nil
	}
	out := make([]line, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		code := d.Code.ID()
		if l, ok := locate(fs, d.Primary); ok {
			l.sev, l.code, l.msg = strings.ToLower(d.Severity.String()), code, flatten(d.Message)
			out = append(out, l)
		}
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			if l, ok := locate(fs, n.Span); ok {
				l.sev, l.code, l.msg = "note", code, flatten(n.Msg)
				out = append(out, l)
			}
		}
	}
	return out
}

func join(lines []line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

func locate(fs *source.FileSet, span source.Span) (line, bool) {
	file := fs.Get(span.File)
	if file == nil {
		return line{}, false
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(file.FormatPath("relative", fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return line{path: path, row: start.Line, col: start.Col}, true
}

// flatten keeps multi-line messages on one line.
func flatten(msg string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(msg), " "))
}
