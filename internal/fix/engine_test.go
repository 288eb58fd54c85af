package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

func insertAt(file source.FileID, src, before, text string) diag.FixEdit {
	at := uint32(strings.Index(src, before))
	return diag.FixEdit{Span: source.Span{File: file, Start: at, End: at}, NewText: text}
}

func mutDiag(file source.FileID, src, name string) diag.Diagnostic {
	edit := insertAt(file, src, name+" =", "mut ")
	return diag.NewError(diag.OwnBorrowImmutable, edit.Span, "cannot borrow `"+name+"` as mutable").
		WithFix("insert `mut`", edit)
}

const twoLets = "fn main() {\n    let a = String::from(\"x\");\n    let b = String::from(\"y\");\n}\n"

func loadTemp(t *testing.T, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.own")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, id, path
}

func TestApplyAllWritesFile(t *testing.T) {
	fs, id, path := loadTemp(t, twoLets)
	diags := []diag.Diagnostic{mutDiag(id, twoLets, "b"), mutDiag(id, twoLets, "a")}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 2 || len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("result = %+v", res)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.ReplaceAll(twoLets, "let ", "let mut ")
	if string(got) != want {
		t.Errorf("file =\n%s\nwant\n%s", got, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestApplyOnceTakesFirstInSourceOrder(t *testing.T) {
	fs, id, path := loadTemp(t, twoLets)
	diags := []diag.Diagnostic{mutDiag(id, twoLets, "b"), mutDiag(id, twoLets, "a")}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || !strings.Contains(res.Applied[0].Message, "`a`") {
		t.Fatalf("applied = %+v", res.Applied)
	}
	got, _ := os.ReadFile(path)
	if !strings.Contains(string(got), "let mut a") || strings.Contains(string(got), "let mut b") {
		t.Errorf("file = %s", got)
	}
}

func TestApplyDryRunLeavesFile(t *testing.T) {
	fs, id, path := loadTemp(t, twoLets)
	res, err := Apply(fs, []diag.Diagnostic{mutDiag(id, twoLets, "a")}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(res.FileChanges[0].Content), "let mut a") {
		t.Errorf("content = %s", res.FileChanges[0].Content)
	}
	got, _ := os.ReadFile(path)
	if string(got) != twoLets {
		t.Error("dry run modified the file")
	}
}

func TestApplySkipsConflicts(t *testing.T) {
	fs, id, _ := loadTemp(t, twoLets)
	start := uint32(strings.Index(twoLets, "String"))
	replace := diag.FixEdit{Span: source.Span{File: id, Start: start, End: start + 6}, NewText: "Text"}
	inside := diag.FixEdit{Span: source.Span{File: id, Start: start + 2, End: start + 2}, NewText: "!"}
	diags := []diag.Diagnostic{
		diag.NewError(diag.OwnTypeMismatch, replace.Span, "first").WithFix("rename", replace),
		diag.NewError(diag.OwnTypeMismatch, replace.Span, "second").WithFix("poke", inside),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("applied=%d skipped=%d", len(res.Applied), len(res.Skipped))
	}
	if !strings.HasPrefix(res.Skipped[0].Reason, "conflicts with") {
		t.Errorf("reason = %q", res.Skipped[0].Reason)
	}
}

func TestApplyNoFixes(t *testing.T) {
	fs, id, _ := loadTemp(t, twoLets)
	diags := []diag.Diagnostic{diag.NewError(diag.OwnUseAfterMove, source.Span{File: id}, "moved")}
	if _, err := Apply(fs, diags, ApplyOptions{}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
}

func TestApplyRefusesVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("lesson:x.own", []byte(twoLets))
	_, err := Apply(fs, []diag.Diagnostic{mutDiag(id, twoLets, "a")}, ApplyOptions{})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
}

func TestSpansConflict(t *testing.T) {
	span := func(s, e uint32) diag.FixEdit { return diag.FixEdit{Span: source.Span{Start: s, End: e}} }
	tests := []struct {
		a, b diag.FixEdit
		want bool
	}{
		{span(1, 1), span(1, 1), false},
		{span(1, 1), span(0, 3), true},
		{span(0, 3), span(3, 3), false},
		{span(0, 3), span(2, 5), true},
		{span(0, 3), span(3, 5), false},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v", tt.a.Span, tt.b.Span, got)
		}
	}
}
