package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	conv "github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/router"
	"github.com/aitutor/tutorchat/internal/screen"
	"github.com/aitutor/tutorchat/internal/ui/components"
	"github.com/aitutor/tutorchat/internal/ui/layout"
)

// ChatScreen is the tabbed conversation view.
type ChatScreen struct {
	ctx    context.Context
	engine *conv.Engine
	coord  *conv.Coordinator

	composer components.Composer
	viewport viewport.Model
	markdown *markdown

	unread map[conv.Tab]bool
	notice string

	// followMu guards follow, the tabs whose next render scrolls to the
	// bottom. The store's append listener fills it.
	followMu sync.Mutex
	follow   map[conv.Tab]bool

	spinning bool
	frame    int

	openHistory func() screen.Screen
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.Resumer = (*ChatScreen)(nil)

// Option configures a ChatScreen.
type Option func(*ChatScreen)

// WithHistory enables ctrl+o, which pushes the screen built by open.
func WithHistory(open func() screen.Screen) Option {
	return func(s *ChatScreen) { s.openHistory = open }
}

// WithContext sets the context transport calls run under.
func WithContext(ctx context.Context) Option {
	return func(s *ChatScreen) { s.ctx = ctx }
}

// New creates the chat screen. Automatic retries are scheduled through
// coord; engine is the only writer of the session.
func New(engine *conv.Engine, coord *conv.Coordinator, opts ...Option) *ChatScreen {
	s := &ChatScreen{
		ctx:      context.Background(),
		engine:   engine,
		coord:    coord,
		composer: components.NewComposer("Ask your tutor anything...", engine.Config().MaxContentLength),
		viewport: viewport.New(),
		markdown: newMarkdown(),
		unread:   make(map[conv.Tab]bool),
		follow:   make(map[conv.Tab]bool),
	}
	for _, o := range opts {
		o(s)
	}
	engine.Session().Store().OnAppend(s.followTab)
	return s
}

func (s *ChatScreen) followTab(tab conv.Tab, _ conv.Message) {
	s.followMu.Lock()
	s.follow[tab] = true
	s.followMu.Unlock()
}

// takeFollow reports and clears a pending scroll-to-bottom for tab.
func (s *ChatScreen) takeFollow(tab conv.Tab) bool {
	s.followMu.Lock()
	defer s.followMu.Unlock()
	f := s.follow[tab]
	delete(s.follow, tab)
	return f
}

func (s *ChatScreen) Init() tea.Cmd {
	return s.composer.Init()
}

func (s *ChatScreen) Title() string {
	return "Chat"
}

// Resume refocuses the composer after an overlay closes.
func (s *ChatScreen) Resume() tea.Cmd {
	return s.composer.Init()
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Tab", Description: "Switch"},
		{Key: "F1-F4", Description: "Actions"},
	}
	if m, ok := s.engine.LatestFailed(s.engine.Session().ActiveTab()); ok && m.CanRetry() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+T", Description: "Retry"})
	}
	if _, ok := s.engine.Session().TerminalError(); ok {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+X", Description: "Dismiss"})
	}
	if s.openHistory != nil {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+O", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case outcomeMsg:
		return s, s.handleOutcome(msg.Outcome)

	case autoRetryMsg:
		d, err := s.engine.Retry(msg.Tab, msg.MessageID)
		if err != nil {
			// The user may have retried manually in the meantime.
			return s, nil
		}
		return s, s.send(d)

	case spinnerTickMsg:
		if !s.anyPending() {
			s.spinning = false
			return s, nil
		}
		s.frame++
		return s, spinnerTick()

	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.composer, cmd = s.composer.Update(msg)
	return s, cmd
}

func (s *ChatScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	for _, a := range conv.QuickActions() {
		if key == a.Key {
			return s.quickAction(a.ID)
		}
	}

	switch key {
	case "enter":
		return s.submit()
	case "tab":
		s.cycleTab(1)
		return nil
	case "shift+tab":
		s.cycleTab(-1)
		return nil
	case "ctrl+t":
		return s.retryLatest()
	case "ctrl+x":
		s.engine.DismissError()
		s.notice = ""
		return nil
	case "ctrl+o":
		if s.openHistory == nil {
			return nil
		}
		next := s.openHistory()
		return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	case "pgup", "pgdown":
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	s.composer, cmd = s.composer.Update(msg)
	return cmd
}

func (s *ChatScreen) submit() tea.Cmd {
	d, err := s.engine.Submit(s.composer.Value())
	if err != nil {
		var verr *conv.ValidationError
		switch {
		case errors.As(err, &verr):
			s.notice = verr.Reason
		case errors.Is(err, conv.ErrAlreadySending):
			s.notice = "Wait for the tutor to reply before sending another message."
		default:
			s.notice = err.Error()
		}
		return nil
	}
	s.notice = ""
	s.composer.Reset()
	return s.send(d)
}

func (s *ChatScreen) retryLatest() tea.Cmd {
	tab := s.engine.Session().ActiveTab()
	msg, ok := s.engine.LatestFailed(tab)
	if !ok {
		s.notice = "Nothing to retry."
		return nil
	}
	d, err := s.coord.ManualRetry(tab, msg.ID)
	switch {
	case errors.Is(err, conv.ErrRetryExhausted):
		s.notice = "That message has used all of its attempts."
		return nil
	case err != nil:
		s.notice = err.Error()
		return nil
	}
	s.notice = ""
	return s.send(d)
}

func (s *ChatScreen) quickAction(id string) tea.Cmd {
	if _, err := s.engine.QuickAction(id); err != nil {
		s.notice = err.Error()
		return nil
	}
	s.notice = ""
	delete(s.unread, s.engine.Session().ActiveTab())
	s.viewport.GotoBottom()
	return nil
}

// send runs the transport call off the UI goroutine; the result comes
// back as an outcomeMsg.
func (s *ChatScreen) send(d conv.Dispatch) tea.Cmd {
	ctx, engine := s.ctx, s.engine
	cmds := []tea.Cmd{func() tea.Msg {
		return outcomeMsg{Outcome: engine.Send(ctx, d)}
	}}
	if !s.spinning {
		s.spinning = true
		cmds = append(cmds, spinnerTick())
	}
	return tea.Batch(cmds...)
}

func (s *ChatScreen) handleOutcome(o conv.Outcome) tea.Cmd {
	st := s.engine.Settle(o)
	if st.Stale {
		return nil
	}
	if st.Tab != s.engine.Session().ActiveTab() {
		s.unread[st.Tab] = true
	}
	if s.coord.Claim(st) {
		tab, id := st.Tab, st.MessageID
		return tea.Tick(s.coord.Delay(), func(time.Time) tea.Msg {
			return autoRetryMsg{Tab: tab, MessageID: id}
		})
	}
	return nil
}

func (s *ChatScreen) cycleTab(step int) {
	tabs := conv.AllTabs()
	active := s.engine.Session().ActiveTab()
	idx := 0
	for i, t := range tabs {
		if t == active {
			idx = i
		}
	}
	next := tabs[(idx+step+len(tabs))%len(tabs)]
	if err := s.engine.Session().SetActiveTab(next); err != nil {
		s.notice = err.Error()
		return
	}
	delete(s.unread, next)
	s.notice = ""
	s.viewport.GotoBottom()
}

func (s *ChatScreen) anyPending() bool {
	for _, t := range conv.AllTabs() {
		if s.engine.Session().Store().HasPending(t) {
			return true
		}
	}
	return false
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
