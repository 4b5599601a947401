package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// ProgressBar displays a labelled ratio, e.g. confirmed of sent messages.
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

// Percent is Done/Total clamped to [0, 1]; zero when Total is zero.
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	count := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	barWidth := max(p.Width-lipgloss.Width(b.String())-len(count), 4)
	filled := int(float64(barWidth) * p.Percent())

	b.WriteString(lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(count))
	return b.String()
}
