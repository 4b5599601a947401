package placeholder

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/screen"
	"github.com/aitutor/tutorchat/internal/ui/layout"
	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// Screen explains why a feature is unavailable in this run, for example
// the history browser when no database is open.
type Screen struct {
	title   string
	message string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

func New(title, message string) *Screen {
	return &Screen{title: title, message: message}
}

func (p *Screen) Init() tea.Cmd { return nil }

func (p *Screen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return p, nil }

func (p *Screen) Title() string { return p.title }

func (p *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (p *Screen) View(width, height int) string {
	heading := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("╌╌ " + p.title + " ╌╌")
	body := lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.message)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, heading, "", body))
}
