package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/router"
	"github.com/aitutor/tutorchat/internal/screen"
	chatscreen "github.com/aitutor/tutorchat/internal/screens/chat"
	"github.com/aitutor/tutorchat/internal/screens/history"
	"github.com/aitutor/tutorchat/internal/screens/placeholder"
	"github.com/aitutor/tutorchat/internal/ui/layout"
)

// Options are the dependencies of the TUI.
type Options struct {
	Context     context.Context
	Engine      *chat.Engine
	Coordinator *chat.Coordinator

	// History backs the transcript browser. Nil shows a notice instead.
	History history.Source

	// Status is shown on the right of the header, e.g. the tutor model.
	Status string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	status string
	width  int
	height int
}

// newAppModel creates an AppModel with the chat screen at the bottom of
// the stack.
func newAppModel(opts Options) AppModel {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sessionID := opts.Engine.Session().ID
	openHistory := func() screen.Screen {
		if opts.History == nil {
			return placeholder.New("History", "History needs a database.\nStart tutorchat with --db to record sessions.")
		}
		return history.New(opts.History, sessionID)
	}

	root := chatscreen.New(opts.Engine, opts.Coordinator,
		chatscreen.WithContext(ctx),
		chatscreen.WithHistory(openHistory),
	)
	return AppModel{
		router: router.New(root),
		status: opts.Status,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case screen.BackgroundMsg:
		return m, m.router.Broadcast(msg)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

func (m AppModel) frame() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(contextOf(opts)))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

func contextOf(opts Options) context.Context {
	if opts.Context != nil {
		return opts.Context
	}
	return context.Background()
}
