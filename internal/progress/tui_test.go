package progress

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelUpdateProgressMsgSetsSnapshot(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(ProgressMsg{Done: 5, Total: 10, At: time.Now()})
	mm := next.(Model)
	if mm.snapshot.Current != 5 || mm.snapshot.Total != 10 {
		t.Errorf("snapshot = %+v, want current=5 total=10", mm.snapshot)
	}
}

func TestModelUpdateCompletionQuits(t *testing.T) {
	m := NewModel()
	next, cmd := m.Update(ProgressMsg{Done: 10, Total: 10, At: time.Now()})
	mm := next.(Model)
	if mm.snapshot.Current != 10 {
		t.Errorf("snapshot not updated on completion")
	}
	if cmd == nil {
		t.Fatal("expected a batched command on completion")
	}
}

func TestModelUpdateKeyQuits(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected tea.Quit on 'q'")
	}
}

func TestModelUpdateInFlightSetsListItems(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(InFlightMsg{Transitions: []string{"compile:0", "compile:1"}})
	mm := next.(Model)
	if len(mm.list.Items()) != 2 {
		t.Errorf("list has %d items, want 2", len(mm.list.Items()))
	}
}

func TestModelViewDoesNotPanic(t *testing.T) {
	m := NewModel()
	next, _ := m.Update(ProgressMsg{Done: 3, Total: 10, At: time.Now()})
	mm := next.(Model)
	if mm.View() == "" {
		t.Error("View() returned empty string")
	}
}
