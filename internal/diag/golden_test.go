package diag

import (
	"testing"

	"ownlab/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/testdata/golden/sample.own", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     OwnInfo,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     OwnUseAfterMove,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{}, Msg: "dropped: no file"},
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "value moved here"},
			},
		},
	}

	expected := "error OWN3001 testdata/golden/sample.own:1:1 first line second\n" +
		"note OWN3001 testdata/golden/sample.own:2:1 value moved here\n" +
		"warning OWN3000 testdata/golden/sample.own:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}

	short := FormatShortDiagnostics(diags, fs, false)
	wantShort := "warning OWN3000 testdata/golden/sample.own:2:1 another\n" +
		"error OWN3001 testdata/golden/sample.own:1:1 first line second"
	if short != wantShort {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", wantShort, short)
	}
}

func TestCodeIDRoundTrip(t *testing.T) {
	for _, c := range []Code{LexBadNumber, SynExpectExpression, OwnBorrowConflict, IOLoadFileError, ProjLessonError} {
		got, ok := ParseCode(c.ID())
		if !ok || got != c {
			t.Fatalf("ParseCode(%q) = %v, %v", c.ID(), got, ok)
		}
	}
	if _, ok := ParseCode("OWN9999"); ok {
		t.Fatalf("unknown id resolved")
	}
	if got := OwnUseAfterMove.String(); got != "[OWN3001]: use of moved value" {
		t.Fatalf("String() = %q", got)
	}
}

func TestCodeCategory(t *testing.T) {
	tests := map[Code]string{
		LexBadNumber:      "lexical",
		SynExpectType:     "syntax",
		OwnUseAfterMove:   "ownership",
		IOLoadFileError:   "io",
		ProjManifestError: "project",
		UnknownCode:       "",
	}
	for c, want := range tests {
		if got := c.Category(); got != want {
			t.Errorf("%s.Category() = %q, want %q", c.ID(), got, want)
		}
	}
}
