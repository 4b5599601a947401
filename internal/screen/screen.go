package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/aitutor/tutorchat/internal/ui/layout"
)

// Screen is one full-window view managed by the router.
type Screen interface {
	// Init returns the command to run when the screen is pushed.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that refresh when they become
// active again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// BackgroundMsg marks asynchronous results that must reach every screen
// on the stack, not only the active one.
type BackgroundMsg interface {
	Background()
}
