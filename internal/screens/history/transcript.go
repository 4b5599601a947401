package history

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/screen"
	"github.com/aitutor/tutorchat/internal/store"
	"github.com/aitutor/tutorchat/internal/ui/layout"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

type transcriptLoadedMsg struct {
	Entries []store.TranscriptEntry
	Err     error
}

// TranscriptScreen replays one recorded session, grouped by tab.
type TranscriptScreen struct {
	source    Source
	sessionID string
	entries   []store.TranscriptEntry
	viewport  viewport.Model
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*TranscriptScreen)(nil)
var _ screen.KeyHintProvider = (*TranscriptScreen)(nil)

func NewTranscript(source Source, sessionID string) *TranscriptScreen {
	return &TranscriptScreen{source: source, sessionID: sessionID, viewport: viewport.New()}
}

func (s *TranscriptScreen) Init() tea.Cmd {
	src, id := s.source, s.sessionID
	return func() tea.Msg {
		entries, err := src.Transcript(context.Background(), id)
		return transcriptLoadedMsg{Entries: entries, Err: err}
	}
}

func (s *TranscriptScreen) Title() string {
	return "Transcript"
}

func (s *TranscriptScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *TranscriptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case transcriptLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		s.entries = msg.Entries
		return s, nil
	case tea.KeyPressMsg:
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *TranscriptScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\nLoading transcript...")
	case len(s.entries) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\nNothing was said in this session.")
	}
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(height)
	s.viewport.SetContent(renderTranscript(s.entries, width))
	return s.viewport.View()
}

func renderTranscript(entries []store.TranscriptEntry, width int) string {
	byTab := make(map[string][]store.TranscriptEntry)
	for _, e := range entries {
		byTab[e.Tab] = append(byTab[e.Tab], e)
	}

	body := theme.Body.Width(max(width-4, 10))
	var sections []string
	for _, tab := range chat.AllTabs() {
		list := byTab[string(tab)]
		if len(list) == 0 {
			continue
		}
		lines := []string{theme.Title.Render(tab.Label())}
		for _, e := range list {
			label := theme.TutorLabel.Render("Tutor")
			if e.Author == string(chat.AuthorUser) {
				label = theme.UserLabel.Render("You")
			}
			meta := e.Timestamp.Local().Format("15:04")
			if e.Attempts > 1 {
				meta += fmt.Sprintf(" · %d attempts", e.Attempts)
			}
			if e.Status == string(chat.StatusFailed) {
				meta += " · failed: " + e.Error
			}
			if e.AttachmentKind != "" {
				meta += " · [" + e.AttachmentKind + "]"
			}
			lines = append(lines, label+" "+theme.Hint.Render(meta), body.Render(e.Content))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}
