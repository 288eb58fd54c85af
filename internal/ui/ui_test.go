package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ownlab/internal/own"
	"ownlab/internal/source"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan Event)
	m := NewProgressModel("checking", []string{"a.own", "b.own"}, events).(*progressModel)

	m.Update(eventMsg(Event{File: "a.own", Phase: "parse", Status: StatusWorking}))
	if got := m.items[0].label(); got != "parsing" {
		t.Fatalf("label = %q", got)
	}
	m.Update(eventMsg(Event{File: "a.own", Status: StatusRejected, Code: "OWN3001"}))
	m.Update(eventMsg(Event{File: "b.own", Status: StatusCached}))
	m.Update(eventMsg(Event{File: "unknown.own", Status: StatusOK}))
	if m.finished() != 2 {
		t.Fatalf("finished = %d", m.finished())
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("done should quit")
	}
	view := m.View()
	for _, want := range []string{"done: checking (2/2)", "OWN3001", "cached", "a.own"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"abcdef", 2, "ab"},
		{"漢字漢字", 6, "漢..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func stepperFixture() (*StepperModel, *source.FileSet) {
	fs := source.NewFileSet()
	src := "fn main() {\n    let s = String::from(\"hi\");\n    let t = s;\n}\n"
	id := fs.AddVirtual("walk.own", []byte(src))
	at := func(sub string) source.Span {
		start := uint32(strings.Index(src, sub))
		return source.Span{File: id, Start: start, End: start + uint32(len(sub))}
	}
	events := []own.Event{
		{Seq: 1, Kind: own.EvScopeEnter, Scope: "main", Site: at("fn main")},
		{Seq: 2, Kind: own.EvCreate, Binding: "s", Depth: 1, Site: at("String::from(\"hi\")")},
		{Seq: 3, Kind: own.EvRead, Binding: "s", Depth: 1, Site: at("s;")},
		{Seq: 4, Kind: own.EvMove, From: "s", Binding: "t", Depth: 1, Site: at("s;")},
		{Seq: 5, Kind: own.EvRelease, Binding: "t", Depth: 1, Site: at("}\n")},
	}
	return NewStepperModel("walk.own", events, fs, ""), fs
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStepperNavigation(t *testing.T) {
	m, _ := stepperFixture()
	if len(m.visible) != 4 {
		t.Fatalf("visible = %d, reads should be hidden", len(m.visible))
	}
	m.Update(keyMsg("n"))
	m.Update(keyMsg("n"))
	ev, _ := m.Current()
	if ev.Kind != own.EvMove {
		t.Fatalf("current = %v, want move", ev.Kind)
	}

	m.Update(keyMsg("r"))
	ev, _ = m.Current()
	if len(m.visible) != 5 || ev.Seq != 4 {
		t.Fatalf("after toggling reads: visible=%d seq=%d", len(m.visible), ev.Seq)
	}
	m.Update(keyMsg("G"))
	if ev, _ = m.Current(); ev.Kind != own.EvRelease {
		t.Fatalf("last = %v", ev.Kind)
	}
	m.Update(keyMsg("n"))
	if ev, _ = m.Current(); ev.Seq != 5 {
		t.Fatalf("cursor moved past end: %d", ev.Seq)
	}
	m.Update(keyMsg("g"))
	if ev, _ = m.Current(); ev.Seq != 1 {
		t.Fatalf("first = %d", ev.Seq)
	}
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestStepperViewShowsSite(t *testing.T) {
	m, _ := stepperFixture()
	m.Update(keyMsg("n"))
	view := m.View()
	for _, want := range []string{"event 2/4", "   2 |", "let s = String::from", "create"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestStepperEmpty(t *testing.T) {
	m := NewStepperModel("empty", nil, nil, "")
	if _, ok := m.Current(); ok {
		t.Fatal("empty stepper has a current event")
	}
	if !strings.Contains(m.View(), "no events") {
		t.Error("empty view")
	}
}
