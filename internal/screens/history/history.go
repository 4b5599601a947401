package history

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/router"
	"github.com/aitutor/tutorchat/internal/screen"
	"github.com/aitutor/tutorchat/internal/store"
	"github.com/aitutor/tutorchat/internal/ui/components"
	"github.com/aitutor/tutorchat/internal/ui/layout"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

const sessionLimit = 50

// Source is the part of the event log the history screens read.
type Source interface {
	ListSessions(ctx context.Context, limit int) ([]store.SessionSummary, error)
	Transcript(ctx context.Context, sessionID string) ([]store.TranscriptEntry, error)
}

type sessionsLoadedMsg struct {
	Sessions []store.SessionSummary
	Err      error
}

// HistoryScreen lists recorded chat sessions, newest first.
type HistoryScreen struct {
	source   Source
	current  string
	sessions []store.SessionSummary
	menu     components.Menu
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen. current is the live session id, marked in
// the list.
func New(source Source, current string) *HistoryScreen {
	return &HistoryScreen{source: source, current: current}
}

func (s *HistoryScreen) Init() tea.Cmd {
	src := s.source
	return func() tea.Msg {
		sessions, err := src.ListSessions(context.Background(), sessionLimit)
		return sessionsLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Transcript"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.sessions = msg.Sessions
		s.menu = components.NewMenu(s.items())
		return s, nil

	case tea.KeyPressMsg:
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *HistoryScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, len(s.sessions))
	for i, sess := range s.sessions {
		label := sess.Started.Local().Format("Jan 02 15:04")
		if sess.SessionID == s.current {
			label += " (this session)"
		}
		detail := fmt.Sprintf("%d messages", sess.Messages)
		if sess.Failures > 0 {
			detail += fmt.Sprintf(" · %d failed", sess.Failures)
		}
		if sess.Terminal > 0 {
			detail += " · gave up"
		}

		id, src := sess.SessionID, s.source
		items[i] = components.MenuItem{
			Label:  label,
			Detail: detail,
			Action: func() tea.Cmd {
				next := NewTranscript(src, id)
				return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			},
		}
	}
	return items
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\nLoading history...")
	case len(s.sessions) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\nNo sessions recorded yet.")
	}
	return "\n" + s.menu.View(width, height-1)
}
