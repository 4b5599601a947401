package chat

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	conv "github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/ui/components"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *ChatScreen) View(width, height int) string {
	session := s.engine.Session()
	active := session.ActiveTab()
	view := conv.Project(session, active)

	sending := make(map[conv.Tab]bool)
	for _, t := range conv.AllTabs() {
		sending[t] = session.Store().HasPending(t)
	}
	tabs := components.TabBar{
		Tabs:    conv.AllTabs(),
		Active:  active,
		Unread:  s.unread,
		Sending: sending,
	}.View(width)

	var top []string
	top = append(top, tabs)
	if view.TerminalError {
		top = append(top, theme.Banner.Width(width).Render(view.Banner+"  (ctrl+x dismiss)"))
	}

	var bottom []string
	if s.notice != "" {
		bottom = append(bottom, theme.Failed.Render(s.notice))
	}
	s.composer.SetWidth(width - 30)
	input := s.composer.View(view.Composing)
	if view.Composing {
		input = theme.Pending.Render(spinnerFrames[s.frame%len(spinnerFrames)]) + " " + input
	}
	bottom = append(bottom, input)

	header := strings.Join(top, "\n")
	footer := strings.Join(bottom, "\n")
	convHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer)-1, 1)

	follow := s.takeFollow(active) || s.viewport.AtBottom() || s.viewport.TotalLineCount() == 0
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(convHeight)
	s.viewport.SetContent(s.renderConversation(view.Messages, width))
	if follow {
		s.viewport.GotoBottom()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, s.viewport.View(), "", footer)
}

func (s *ChatScreen) renderConversation(msgs []conv.Message, width int) string {
	inner := max(width-2, 20)
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Author == conv.AuthorUser {
			blocks = append(blocks, renderUser(m, inner))
			continue
		}
		block := theme.TutorLabel.Render("Tutor") + "\n" + s.markdown.Render(m.Content, inner)
		if card := renderAttachment(m.Attachment, inner); card != "" {
			block += "\n" + card
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func renderUser(m conv.Message, width int) string {
	label := theme.UserLabel.Render("You")
	switch m.Status {
	case conv.StatusPending:
		if m.Attempts > 1 {
			label += " " + theme.Pending.Render(fmt.Sprintf("retrying (attempt %d/%d)…", m.Attempts, conv.MaxAttempts))
		} else {
			label += " " + theme.Pending.Render("sending…")
		}
	case conv.StatusFailed:
		note := fmt.Sprintf("failed: %s", m.LastError)
		if m.CanRetry() {
			note += " · ctrl+t to retry"
		}
		label += " " + theme.Failed.Render(note)
	}
	return label + "\n" + theme.Body.Width(width).Render(m.Content)
}
