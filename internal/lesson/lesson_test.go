package lesson

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/diag"
)

func TestBuiltinLessons(t *testing.T) {
	lessons, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	var names []string
	for _, l := range lessons {
		names = append(names, l.Name)
	}
	for _, want := range []string{"ch3", "ch4", "ch4-errors/dangle", "ch4-errors/use_after_move"} {
		if _, ok := Find(lessons, want); !ok {
			t.Errorf("missing lesson %q in %v", want, names)
		}
	}

	ch4, _ := Find(lessons, "ch4.own")
	if ch4.Rejected() || ch4.Output == "" || !strings.Contains(ch4.Notes, "ownership") {
		t.Errorf("ch4 metadata incomplete: rejected=%v output=%d notes=%d", ch4.Rejected(), len(ch4.Output), len(ch4.Notes))
	}
	if ch4.Path != "lesson:ch4.own" {
		t.Errorf("ch4 path = %q", ch4.Path)
	}

	dangle, _ := Find(lessons, "ch4-errors/dangle")
	if dangle.Expect != diag.OwnDanglingReference {
		t.Errorf("dangle expects %s", dangle.Expect.ID())
	}
	if dangle.Group() != "ch4-errors" || !strings.Contains(dangle.Notes, "rejected programs") {
		t.Errorf("dangle should inherit the group notes, got %q", dangle.Notes)
	}
	for _, l := range lessons {
		if l.Group() == "ch4-errors" && !l.Rejected() {
			t.Errorf("%s has no expect header", l.Name)
		}
		if l.Title == "" {
			t.Errorf("%s has no title", l.Name)
		}
	}
}

func TestParseHeader(t *testing.T) {
	src := "// title: Two borrows\n//expect:OWN3002\n\n/// doc comment ends the header\n// ignored: yes\nfn main() {}\n"
	got := parseHeader([]byte(src))
	want := map[string]string{"title": "Two borrows", "expect": "OWN3002"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("extra/ok.own", "// title: ok\nfn main() {}\n")
	write("extra/ok.out", "")
	write("bad.own", "// expect: NOPE1\nfn main() {}\n")

	if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "unknown expected code") {
		t.Fatalf("expected header error, got %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "bad.own")); err != nil {
		t.Fatal(err)
	}
	lessons, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(lessons) != 1 || lessons[0].Name != "extra/ok" || lessons[0].Title != "ok" {
		t.Fatalf("unexpected lessons: %+v", lessons)
	}
}

func TestSelect(t *testing.T) {
	lessons := []Lesson{{Name: "ch3"}, {Name: "ch4"}, {Name: "ch4-errors/a"}, {Name: "ch4-errors/b"}}
	got, err := Select(lessons, "ch4-errors", "ch3")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	var names []string
	for _, l := range got {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"ch4-errors/a", "ch4-errors/b", "ch3"}, names); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if _, err := Select(lessons, "ch9"); err == nil {
		t.Error("expected error for unknown lesson")
	}
}

func TestVerifyJudgements(t *testing.T) {
	lessons := []Lesson{
		{Name: "pass", Output: "hi\n"},
		{Name: "wrong-output", Output: "hi\nthere\n"},
		{Name: "reject", Expect: diag.OwnUseAfterMove},
		{Name: "wrong-code", Expect: diag.OwnUseAfterMove},
		{Name: "should-fail", Expect: diag.OwnBorrowConflict},
		{Name: "should-pass"},
		{Name: "broken"},
	}
	runs := map[string]struct {
		out  string
		code diag.Code
		err  error
	}{
		"pass":         {out: "hi\n"},
		"wrong-output": {out: "hi\nthem\n"},
		"reject":       {code: diag.OwnUseAfterMove},
		"wrong-code":   {code: diag.OwnBorrowMove},
		"should-fail":  {},
		"should-pass":  {code: diag.OwnDanglingReference},
		"broken":       {err: errors.New("disk on fire")},
	}
	check := func(_ context.Context, l Lesson) (string, diag.Code, error) {
		r := runs[l.Name]
		return r.out, r.code, r.err
	}

	results, err := Verify(context.Background(), lessons, check, 3)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	problems := make(map[string]string)
	for _, r := range results {
		problems[r.Lesson.Name] = r.Problem
	}
	want := map[string]string{
		"pass":         "",
		"wrong-output": `output differs at line 2: want "there", got "them"`,
		"reject":       "",
		"wrong-code":   "expected OWN3001, got OWN3004",
		"should-fail":  "expected OWN3002, but the program ran to completion",
		"should-pass":  "expected success, got OWN3005",
		"broken":       "run failed: disk on fire",
	}
	if diff := cmp.Diff(want, problems); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}
	if got := len(Failed(results)); got != 5 {
		t.Errorf("Failed = %d, want 5", got)
	}
}

func TestVerifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Verify(ctx, []Lesson{{Name: "a"}}, func(context.Context, Lesson) (string, diag.Code, error) {
		return "", 0, nil
	}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
