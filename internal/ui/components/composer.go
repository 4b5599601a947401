package components

import (
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/ui/theme"
)

// Composer is the single-line message input under the conversation.
type Composer struct {
	Model textinput.Model
	Limit int
}

// NewComposer creates a focused composer that accepts at most limit
// characters.
func NewComposer(placeholder string, limit int) Composer {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return Composer{Model: ti, Limit: limit}
}

func (c Composer) Init() tea.Cmd {
	return c.Model.Focus()
}

func (c Composer) Update(msg tea.Msg) (Composer, tea.Cmd) {
	var cmd tea.Cmd
	c.Model, cmd = c.Model.Update(msg)
	return c, cmd
}

// View renders the input. While busy the text stays editable but a
// waiting hint replaces the counter.
func (c Composer) View(busy bool) string {
	view := c.Model.View()
	switch {
	case busy:
		view += "  " + theme.Hint.Render("waiting for tutor…")
	case c.Limit > 0 && len([]rune(c.Model.Value()))*5 >= c.Limit*4:
		view += "  " + lipgloss.NewStyle().Foreground(theme.Accent).
			Render(fmt.Sprintf("%d/%d", len([]rune(c.Model.Value())), c.Limit))
	}
	return view
}

// SetWidth sets the visible input width.
func (c *Composer) SetWidth(w int) {
	c.Model.SetWidth(max(w, 10))
}

func (c Composer) Value() string { return c.Model.Value() }

// Reset clears the input.
func (c *Composer) Reset() { c.Model.Reset() }
