package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// TabBar renders the conversation tabs. Tabs with replies the learner
// has not seen carry a dot; tabs still waiting on the tutor an ellipsis.
type TabBar struct {
	Tabs    []chat.Tab
	Active  chat.Tab
	Unread  map[chat.Tab]bool
	Sending map[chat.Tab]bool
}

func (t TabBar) View(width int) string {
	parts := make([]string, 0, len(t.Tabs))
	for _, tab := range t.Tabs {
		label := tab.Label()
		switch {
		case t.Sending[tab]:
			label += " …"
		case t.Unread[tab] && tab != t.Active:
			label += " " + theme.TabBadge.Render("●")
		}
		if tab == t.Active {
			parts = append(parts, theme.TabActive.Render(label))
		} else {
			parts = append(parts, theme.TabInactive.Render(label))
		}
	}
	bar := strings.Join(parts, " ")
	rule := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 0)))
	return bar + "\n" + rule
}
