package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressMsg is sent whenever the Scheduler reports a new done/total pair.
type ProgressMsg struct {
	Done, Total int
	At          time.Time
}

// InFlightMsg replaces the list of transitions currently running, keyed by
// a "process:index" style identifier.
type InFlightMsg struct {
	Transitions []string
}

// doneMsg signals the run has finished and the program should quit on its
// own rather than wait for a keypress.
type doneMsg struct{}

type inFlightItem string

func (i inFlightItem) FilterValue() string { return string(i) }
func (i inFlightItem) Title() string       { return string(i) }
func (i inFlightItem) Description() string { return "" }

type inFlightDelegate struct{}

func (inFlightDelegate) Height() int                        { return 1 }
func (inFlightDelegate) Spacing() int                       { return 0 }
func (inFlightDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (inFlightDelegate) Render(w io.Writer, _ list.Model, _ int, item list.Item) {
	if it, ok := item.(inFlightItem); ok {
		fmt.Fprint(w, itemStyle.Render("• "+string(it)))
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	itemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the live worker/transition view for --progress tui, adapted from
// the teacher's cmd/kk Bubble Tea model (list.Model for a scrollable set of
// entries, lipgloss styles applied in View, a tea.Msg-driven Update loop).
type Model struct {
	bar      progress.Model
	list     list.Model
	tracker  *Tracker
	snapshot Snapshot
	quitting bool
}

// NewModel builds the TUI model with an empty in-flight list.
func NewModel() Model {
	bar := progress.New(progress.WithDefaultGradient())
	l := list.New(nil, inFlightDelegate{}, 48, 8)
	l.Title = "in-flight transitions"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return Model{bar: bar, list: l, tracker: New(time.Now())}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		m.list.SetSize(msg.Width, msg.Height-6)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case ProgressMsg:
		m.tracker.Update(msg.At, msg.Done, msg.Total)
		m.snapshot = m.tracker.Snapshot(msg.At)
		cmd := m.bar.SetPercent(m.snapshot.Percent / 100)
		if msg.Total > 0 && msg.Done >= msg.Total {
			return m, tea.Batch(cmd, func() tea.Msg { return doneMsg{} })
		}
		return m, cmd
	case InFlightMsg:
		items := make([]list.Item, len(msg.Transitions))
		for i, t := range msg.Transitions {
			items[i] = inFlightItem(t)
		}
		m.list.SetItems(items)
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case progress.FrameMsg:
		newBar, cmd := m.bar.Update(msg)
		m.bar = newBar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	header := titleStyle.Render(fmt.Sprintf("%d / %d commands", m.snapshot.Current, m.snapshot.Total))
	eta := helpStyle.Render(fmt.Sprintf("ETA %s  (%s)", etaString(m.snapshot.GlobalETA), rateString(m.snapshot.GlobalRate)))
	body := header + "\n" + m.bar.View() + "  " + eta + "\n\n" + m.list.View()
	if !m.quitting {
		body += "\n" + helpStyle.Render("press q to detach")
	}
	return body
}

// NewProgram wraps Model in a tea.Program writing to w.
func NewProgram(w io.Writer) *tea.Program {
	return tea.NewProgram(NewModel(), tea.WithOutput(w))
}
