package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Status is the state of one script in the check view. Everything from
// StatusOK on is final.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusOK
	StatusRejected
	StatusCached
)

func (s Status) final() bool { return s >= StatusOK }

// Event moves a script to a new phase or final status. Phase is read only
// while Status is StatusWorking; Code labels rejected scripts.
type Event struct {
	File   string
	Phase  string
	Status Status
	Code   string
}

// phases maps a driver phase to its label and to how far along a script
// is once the phase has started.
var phases = map[string]struct {
	label string
	share float64
}{
	"load":  {"loading", 0.1},
	"parse": {"parsing", 0.3},
	"run":   {"running", 0.6},
}

var statusLabels = [...]string{
	StatusQueued:   "queued",
	StatusWorking:  "working",
	StatusOK:       "ok",
	StatusRejected: "rejected",
	StatusCached:   "cached",
}

var statusColors = [...]lipgloss.Color{
	StatusQueued:   "7",
	StatusWorking:  "6",
	StatusOK:       "2",
	StatusRejected: "1",
	StatusCached:   "4",
}

const labelWidth = 12

type script struct {
	path   string
	status Status
	phase  string
	code   string
}

func (s script) label() string {
	switch {
	case s.status == StatusWorking && phases[s.phase].label != "":
		return phases[s.phase].label
	case s.status == StatusRejected && s.code != "":
		return s.code
	}
	return statusLabels[s.status]
}

func (s script) share() float64 {
	if s.status.final() {
		return 1
	}
	if s.status == StatusWorking {
		return phases[s.phase].share
	}
	return 0
}

type progressModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	bar     progress.Model
	items   []script
	byPath  map[string]*script
	width   int
	done    bool
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel renders check progress for files until events is
// closed.
func NewProgressModel(title string, files []string, events <-chan Event) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("6")))),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		items:   make([]script, len(files)),
		byPath:  make(map[string]*script, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.items[i].path = f
		m.byPath[f] = &m.items[i]
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next)
}

// next blocks for the following event and turns a closed channel into
// doneMsg.
func (m *progressModel) next() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return doneMsg{}
	}
	return eventMsg(ev)
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(Event(msg)), m.next)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width, m.bar.Width = msg.Width, msg.Width-4
		}
	case progress.FrameMsg:
		var bar tea.Model
		bar, cmd = m.bar.Update(msg)
		m.bar = bar.(progress.Model)
	}
	return m, cmd
}

func (m *progressModel) apply(ev Event) tea.Cmd {
	s, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	s.status, s.phase, s.code = ev.Status, ev.Phase, ev.Code

	var sum float64
	for _, it := range m.items {
		sum += it.share()
	}
	return m.bar.SetPercent(sum / float64(len(m.items)))
}

func (m *progressModel) finished() int {
	n := 0
	for _, it := range m.items {
		if it.status.final() {
			n++
		}
	}
	return n
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := fmt.Sprintf("%s (%d/%d)", m.title, m.finished(), len(m.items))
	bar := m.bar.View()
	if m.done {
		header, bar = "done: "+header, m.bar.ViewAs(1)
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")
	nameWidth := max(m.width-labelWidth-4, 20)
	for _, it := range m.items {
		label := lipgloss.NewStyle().Foreground(statusColors[it.status]).Render(fmt.Sprintf("%*s", labelWidth, it.label()))
		fmt.Fprintf(&b, "  %s %s\n", label, truncate(it.path, nameWidth))
	}
	b.WriteString("\n" + bar + "\n")
	return b.String()
}

// truncate shortens value to width display cells, ending in "..." when
// there is room for it. A width of 0 or less means no limit.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
