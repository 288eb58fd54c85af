package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

const tabWidth = 4

// palette holds colors forced on or off regardless of the terminal,
// so Pretty output is stable under tests and pipes.
type palette struct {
	sev    map[diag.Severity]*color.Color
	code   *color.Color
	note   *color.Color
	fix    *color.Color
	gutter *color.Color
	add    *color.Color
	del    *color.Color
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func newPalette(enabled bool) palette {
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   newColor(enabled, color.FgRed, color.Bold),
			diag.SevWarning: newColor(enabled, color.FgYellow, color.Bold),
			diag.SevInfo:    newColor(enabled, color.FgCyan, color.Bold),
		},
		code:   newColor(enabled, color.Bold),
		note:   newColor(enabled, color.FgBlue, color.Bold),
		fix:    newColor(enabled, color.FgGreen, color.Bold),
		gutter: newColor(enabled, color.FgBlue),
		add:    newColor(enabled, color.FgGreen),
		del:    newColor(enabled, color.FgRed),
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	sevColor := p.sev[d.Severity]
	if sevColor == nil {
		sevColor = p.code
	}
	head := sevColor.Sprint(d.Severity.String()) + " " + p.code.Sprint(d.Code.ID()) + ": " + d.Message
	if pos := position(fs, d.Primary, opts.PathMode); pos != "" {
		head = pos + ": " + head
	}
	fmt.Fprintln(w, head)
	writeSnippet(w, fs, d.Primary, opts, p, sevColor)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			line := p.note.Sprint("note") + ": "
			if pos := position(fs, n.Span, opts.PathMode); pos != "" {
				line += pos + ": "
			}
			fmt.Fprintln(w, "  "+line+n.Msg)
			writeSnippet(w, fs, n.Span, PrettyOpts{Width: opts.Width}, p, p.note)
		}
	}

	if opts.ShowFixes {
		for i, fx := range d.Fixes {
			fmt.Fprintf(w, "  %s: %s\n", p.fix.Sprintf("fix #%d", i+1), fx.Title)
			for _, edit := range fx.Edits {
				fmt.Fprintf(w, "    edit %s apply=%q\n", position(fs, edit.Span, opts.PathMode), edit.NewText)
				if !opts.ShowPreview {
					continue
				}
				preview, err := previewEdit(fs, edit)
				if err != nil {
					continue
				}
				fmt.Fprintln(w, "    preview:")
				for _, l := range preview.before {
					fmt.Fprintln(w, "      "+p.del.Sprint("- "+l))
				}
				for _, l := range preview.after {
					fmt.Fprintln(w, "      "+p.add.Sprint("+ "+l))
				}
			}
		}
	}
}

// writeSnippet prints the lines around span with a caret underline.
// Columns are measured in display cells so wide runes stay aligned.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette, mark *color.Color) {
	if fs == nil {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	ctx := uint32(max(opts.Context, 0))
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	gutterWidth := len(fmt.Sprint(last))

	emit := func(n uint32, text string) {
		num := fmt.Sprintf("%*d", gutterWidth, n)
		fmt.Fprintln(w, p.gutter.Sprint(num+" | ")+clip(text, opts.Width))
	}
	for n := first; n <= last; n++ {
		if n > uint32(len(f.LineIdx))+1 {
			break
		}
		text := f.GetLine(n)
		emit(n, expandTabs(text))
		if n != start.Line {
			continue
		}
		lead, under := underline(text, start.Col, end, start.Line)
		pad := strings.Repeat(" ", gutterWidth)
		fmt.Fprintln(w, p.gutter.Sprint(pad+" | ")+strings.Repeat(" ", lead)+mark.Sprint(under))
	}
}

// underline returns the display offset of the span start and its marker,
// `^` followed by `~` for the rest of the span on the first line.
func underline(line string, col uint32, end source.LineCol, startLine uint32) (int, string) {
	startByte := min(int(col)-1, len(line))
	startByte = max(startByte, 0)
	endByte := len(line)
	if end.Line == startLine {
		endByte = min(int(end.Col)-1, len(line))
	}
	lead := runewidth.StringWidth(expandTabs(line[:startByte]))
	width := 1
	if endByte > startByte {
		width = max(runewidth.StringWidth(expandTabs(line[startByte:endByte])), 1)
	}
	return lead, "^" + strings.Repeat("~", width-1)
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func clip(s string, width uint8) string {
	if width == 0 {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}
