package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"ownlab/internal/diag"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let x = \"unterminated string\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.own", content)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 8, End: 28},
		"Unterminated string literal",
	))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/test.own"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/test.own"},
		{name: "Basename only", mode: PathModeBasename, contains: "test.own"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "LEX1002", "Unterminated string"} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output, got:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettySnippetUnderline(t *testing.T) {
	fs := source.NewFileSet()
	src := "fn main() {\n    println!(\"{}\", s1);\n}\n"
	fileID := fs.AddVirtual("move.own", []byte(src))
	start := uint32(strings.Index(src, "s1"))

	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.OwnUseAfterMove, source.Span{File: fileID, Start: start, End: start + 2}, "borrow of moved value: `s1`"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "move.own:2:20: ERROR OWN3001: borrow of moved value: `s1`\n" +
		"2 |     println!(\"{}\", s1);\n" +
		"  |                    ^~\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs := source.NewFileSet()
	src := "a\nb\nc\nd\n"
	fileID := fs.AddVirtual("ctx.own", []byte(src))

	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, source.Span{File: fileID, Start: 4, End: 5}, "odd"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	out := buf.String()
	for _, want := range []string{"2 | b\n", "3 | c\n", "  | ^\n", "4 | d\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "1 | a") {
		t.Errorf("context wider than requested:\n%s", out)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let s = String::from(\"x\")\n")
	fileID := fs.AddVirtual("test.own", content)

	bag := diag.NewBag(4)
	primary := source.Span{File: fileID, Start: 4, End: 5}
	d := diag.New(diag.SevWarning, diag.SynUnexpectedToken, primary, "unexpected token")
	d = d.WithNote(source.Span{File: fileID, Start: 8, End: 14}, "value created here")

	insertSpan := source.Span{File: fileID, Start: uint32(len(content) - 1), End: uint32(len(content) - 1)}
	d = d.WithFix("insert semicolon", diag.FixEdit{Span: insertSpan, NewText: ";"})
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	output := buf.String()

	if !strings.Contains(output, "note: test.own:1:9: value created here") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #1: insert semicolon") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, "apply=\";\"") {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let a = 42 // missing semicolon")
	fileID := fs.AddVirtual("example.own", content)

	bag := diag.NewBag(2)
	insertSpan := source.Span{File: fileID, Start: 10, End: 10}
	d := diag.New(diag.SevWarning, diag.LexUnknownChar, insertSpan, "missing semicolon")
	d = d.WithFix("insert semicolon", diag.FixEdit{Span: insertSpan, NewText: ";"})
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})

	output := buf.String()
	if !strings.Contains(output, "preview:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- let a = 42 // missing semicolon") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, "+ let a = 42; // missing semicolon") {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}

func TestPrettyColorToggle(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("c.own", []byte("x\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LexUnknownChar, source.Span{File: fileID, Start: 0, End: 1}, "bad"))

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output has escape codes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes: %q", colored.String())
	}
}

func TestShortFormat(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("s.own", []byte("let x = y;\n"))
	bag := diag.NewBag(2)
	bag.Add(diag.NewError(diag.OwnUseAfterMove, source.Span{File: fileID, Start: 8, End: 9}, "use of moved value: `y`"))

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, false); err != nil {
		t.Fatalf("Short: %v", err)
	}
	if got, want := buf.String(), "error OWN3001 s.own:1:9 use of moved value: `y`\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEventLine(t *testing.T) {
	tests := []struct {
		ev   own.Event
		want string
	}{
		{own.Event{Seq: 1, Kind: own.EvCreate, Depth: 1, Binding: "s"}, "   1   create        s"},
		{own.Event{Seq: 2, Kind: own.EvMove, Depth: 1, From: "s", Binding: "x"}, "   2   move          s -> x"},
		{own.Event{Seq: 3, Kind: own.EvBorrowStart, Binding: "s", Borrow: 2, BorrowKind: own.BorrowExclusive}, "   3 borrow_start  s &mut#2"},
		{own.Event{Seq: 4, Kind: own.EvScopeExit, Scope: "main"}, "   4 scope_exit    [main]"},
		{own.Event{Seq: 5, Kind: own.EvReject, Binding: "s", Code: diag.OwnUseAfterMove, Detail: "read"}, "   5 reject        s OWN3001 \"read\""},
	}
	for _, tt := range tests {
		if got := EventLine(tt.ev, nil, EventOpts{}); got != tt.want {
			t.Errorf("EventLine(%v):\n got %q\nwant %q", tt.ev.Kind, got, tt.want)
		}
	}
}

func TestEventsSkipReads(t *testing.T) {
	events := []own.Event{
		{Seq: 1, Kind: own.EvCreate, Binding: "s"},
		{Seq: 2, Kind: own.EvRead, Binding: "s"},
	}
	var buf bytes.Buffer
	Events(&buf, events, nil, EventOpts{})
	if strings.Contains(buf.String(), "read") {
		t.Fatalf("read events should be hidden by default:\n%s", buf.String())
	}
	buf.Reset()
	Events(&buf, events, nil, EventOpts{Reads: true})
	if !strings.Contains(buf.String(), "read") {
		t.Fatalf("read events requested but missing:\n%s", buf.String())
	}
}
