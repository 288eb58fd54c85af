package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ownlab/internal/diagfmt"
	"ownlab/internal/own"
	"ownlab/internal/source"
)

type stepperKeys struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
	Reads key.Binding
	Quit  key.Binding
}

func (k stepperKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.First, k.Last, k.Reads, k.Quit}
}

func (k stepperKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultStepperKeys = stepperKeys{
	Next:  key.NewBinding(key.WithKeys("n", "j", "down", " "), key.WithHelp("n", "next")),
	Prev:  key.NewBinding(key.WithKeys("p", "k", "up"), key.WithHelp("p", "prev")),
	First: key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
	Last:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
	Reads: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle reads")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	stepTitle   = lipgloss.NewStyle().Bold(true)
	stepCurrent = lipgloss.NewStyle().Reverse(true)
	stepMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	stepGutter  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	stepReject  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// StepperModel walks an ownership event log one event at a time, showing
// the source line each event happened at.
type StepperModel struct {
	title   string
	all     []own.Event
	visible []int
	reads   bool
	cursor  int
	fs      *source.FileSet
	outcome string
	keys    stepperKeys
	help    help.Model
	height  int
	width   int
}

// NewStepperModel builds a stepper over events. outcome is shown once the
// last event is reached; it is usually the rejection message or empty.
func NewStepperModel(title string, events []own.Event, fs *source.FileSet, outcome string) *StepperModel {
	m := &StepperModel{
		title:   title,
		all:     events,
		fs:      fs,
		outcome: outcome,
		keys:    defaultStepperKeys,
		help:    help.New(),
		height:  24,
		width:   80,
	}
	m.filter()
	return m
}

// Current returns the event under the cursor.
func (m *StepperModel) Current() (own.Event, bool) {
	if len(m.visible) == 0 {
		return own.Event{}, false
	}
	return m.all[m.visible[m.cursor]], true
}

func (m *StepperModel) filter() {
	var seq uint64
	if ev, ok := m.Current(); ok {
		seq = ev.Seq
	}
	m.visible = m.visible[:0]
	m.cursor = 0
	for i, ev := range m.all {
		if ev.Kind == own.EvRead && !m.reads {
			continue
		}
		if ev.Seq <= seq {
			m.cursor = len(m.visible)
		}
		m.visible = append(m.visible, i)
	}
}

func (m *StepperModel) Init() tea.Cmd { return nil }

func (m *StepperModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.cursor = min(m.cursor+1, max(len(m.visible)-1, 0))
		case key.Matches(msg, m.keys.Prev):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, m.keys.First):
			m.cursor = 0
		case key.Matches(msg, m.keys.Last):
			m.cursor = max(len(m.visible)-1, 0)
		case key.Matches(msg, m.keys.Reads):
			m.reads = !m.reads
			m.filter()
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
	}
	return m, nil
}

func (m *StepperModel) View() string {
	var b strings.Builder
	b.WriteString(stepTitle.Render(fmt.Sprintf("%s  event %d/%d", m.title, min(m.cursor+1, len(m.visible)), len(m.visible))))
	b.WriteString("\n\n")

	ev, ok := m.Current()
	if !ok {
		b.WriteString("no events\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}
	m.writeSource(&b, ev.Site)
	b.WriteString("\n")

	listHeight := max(m.height-14, 3)
	first := max(m.cursor-listHeight+1, 0)
	for i := first; i <= m.cursor; i++ {
		line := diagfmt.EventLine(m.all[m.visible[i]], nil, diagfmt.EventOpts{})
		line = truncate(line, m.width-2)
		if i == m.cursor {
			line = stepCurrent.Render(line)
		}
		b.WriteString("  " + line + "\n")
	}
	if m.cursor == len(m.visible)-1 && m.outcome != "" {
		b.WriteString("\n" + stepReject.Render(m.outcome) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// writeSource prints a few lines around span and marks its columns.
func (m *StepperModel) writeSource(b *strings.Builder, span source.Span) {
	if m.fs == nil {
		return
	}
	f := m.fs.Get(span.File)
	if f == nil {
		b.WriteString("  (no source position)\n")
		return
	}
	start, end := m.fs.Resolve(span)
	if start.Line == 0 {
		b.WriteString("  (no source position)\n")
		return
	}
	first := uint32(1)
	if start.Line > 2 {
		first = start.Line - 2
	}
	last := min(start.Line+2, uint32(len(f.LineIdx))+1)
	for n := first; n <= last; n++ {
		text := strings.ReplaceAll(f.GetLine(n), "\t", "    ")
		gutter := stepGutter.Render(fmt.Sprintf("%4d | ", n))
		b.WriteString(gutter + truncate(text, m.width-8) + "\n")
		if n != start.Line {
			continue
		}
		line := f.GetLine(n)
		from := min(max(int(start.Col)-1, 0), len(line))
		to := len(line)
		if end.Line == start.Line {
			to = min(max(int(end.Col)-1, from), len(line))
		}
		lead := runewidth.StringWidth(strings.ReplaceAll(line[:from], "\t", "    "))
		width := max(runewidth.StringWidth(line[from:to]), 1)
		b.WriteString(stepGutter.Render("     | ") + strings.Repeat(" ", lead) + stepMark.Render(strings.Repeat("^", width)) + "\n")
	}
}
