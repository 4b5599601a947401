package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/aitutor/tutorchat/internal/chat"
)

func TestProgressBarPercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{1, 4, 0.25},
		{5, 4, 1},
	}
	for _, tt := range tests {
		p := ProgressBar{Done: tt.done, Total: tt.total, Width: 40}
		if got := p.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
		if !strings.Contains(p.View(), "/") {
			t.Error("view should show the count")
		}
	}
}

func TestMenuNavigation(t *testing.T) {
	var chosen string
	pick := func(s string) func() tea.Cmd {
		return func() tea.Cmd { chosen = s; return nil }
	}
	m := NewMenu([]MenuItem{
		{Label: "a", Action: pick("a")},
		{Label: "b", Action: pick("b")},
		{Label: "c", Action: pick("c")},
	})

	down := tea.KeyPressMsg{Code: tea.KeyDown}
	m, _ = m.Update(down)
	m, _ = m.Update(down)
	m, _ = m.Update(down)
	if m.Selected != 2 {
		t.Errorf("selected = %d, want 2", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if chosen != "c" {
		t.Errorf("chosen = %q", chosen)
	}

	view := m.View(40, 2)
	if strings.Contains(view, "    a") {
		t.Error("first row should scroll out of a two-row window")
	}
	if !strings.Contains(view, "▸ c") {
		t.Errorf("cursor row missing: %q", view)
	}
}

func TestTabBarMarks(t *testing.T) {
	bar := TabBar{
		Tabs:    chat.AllTabs(),
		Active:  chat.TabHome,
		Unread:  map[chat.Tab]bool{chat.TabReview: true, chat.TabHome: true},
		Sending: map[chat.Tab]bool{chat.TabExplore: true},
	}
	view := bar.View(60)
	if strings.Count(view, "●") != 1 {
		t.Errorf("want exactly one unread dot (active tab is never marked): %q", view)
	}
	if !strings.Contains(view, "Explore …") {
		t.Errorf("sending tab not marked: %q", view)
	}
}
