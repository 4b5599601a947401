package chat

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// markdown renders tutor replies, caching one renderer per wrap width.
type markdown struct {
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdown() *markdown {
	return &markdown{}
}

// Render returns content as terminal markdown, or plain wrapped text if
// the renderer cannot be built.
func (m *markdown) Render(content string, width int) string {
	if width != m.width || m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.renderer = nil
			return theme.Body.Width(width).Render(content)
		}
		m.width, m.renderer = width, r
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return theme.Body.Width(width).Render(content)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Trim(out, "\n"))
}
