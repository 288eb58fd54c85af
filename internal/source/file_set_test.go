package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("<lesson:ch4>", []byte("let s = 1\nlet t = s\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{name: "file start", off: 0, want: LineCol{Line: 1, Col: 1}},
		{name: "first line end", off: 9, want: LineCol{Line: 1, Col: 10}},
		{name: "second line start", off: 10, want: LineCol{Line: 2, Col: 1}},
		{name: "second line ident", off: 18, want: LineCol{Line: 2, Col: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if start != tt.want {
				t.Fatalf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
			}
		})
	}
}

func TestFileSetGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("<test>", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	if f == nil {
		t.Fatalf("file %d not found", id)
	}
	for line, want := range map[uint32]string{1: "one", 2: "two", 3: "three", 4: "", 0: ""} {
		if got := f.GetLine(line); got != want {
			t.Fatalf("GetLine(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.own")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\r\n")...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b, want BOM and CRLF", f.Flags)
	}
	if got := f.FormatPath("relative", dir); got != "crlf.own" {
		t.Fatalf("relative path = %q", got)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 1}
	if got := a.Cover(other); got != a {
		t.Fatalf("Cover across files = %v, want %v", got, a)
	}
	if got := (Span{}).Cover(a); got != a {
		t.Fatalf("Cover from empty = %v", got)
	}
	if !a.Cover(b).Contains(a) || a.Contains(b) || a.Contains(other) {
		t.Fatalf("Contains disagrees with Cover")
	}
	if fs := NewFileSet(); fs.Get(NoFileID) != nil {
		t.Fatalf("NoFileID resolved to a file")
	}
}
