package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/router"
)

func newTestModel(replies ...chat.MockReply) (AppModel, *chat.Engine) {
	eng := chat.NewEngine(chat.NewSession(), chat.NewMockTransport(replies...), chat.DefaultConfig(), zerolog.Nop())
	m := newAppModel(Options{
		Context:     context.Background(),
		Engine:      eng,
		Coordinator: chat.NewCoordinator(eng, 0),
		Status:      "offline",
	})
	return m, eng
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return am, cmd
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newTestModel()
	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestHistoryWithoutDatabase(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected push command")
	}
	m, _ = update(t, m, cmd())
	if m.router.Depth() != 2 || m.router.Active().Title() != "History" {
		t.Fatalf("depth %d, active %q", m.router.Depth(), m.router.Active().Title())
	}
	if !strings.Contains(m.frame(), "needs a database") {
		t.Error("expected placeholder notice")
	}

	m, cmd = update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected PopScreenMsg")
	}
	m, _ = update(t, m, router.PopScreenMsg{})
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d", m.router.Depth())
	}
}

func TestRepliesSettleBehindOverlay(t *testing.T) {
	m, eng := newTestModel(chat.TextReply("welcome back"))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	for _, r := range "hello" {
		m, _ = update(t, m, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	_, sendCmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	_, pushCmd := update(t, m, tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl})
	m, _ = update(t, m, pushCmd())

	for _, msg := range run(sendCmd) {
		m, _ = update(t, m, msg)
	}
	conv := eng.Session().Store().Conversation(chat.TabHome)
	if len(conv) != 3 || conv[2].Content != "welcome back" {
		t.Errorf("reply not settled while history was open: %+v", conv)
	}
}

// run executes cmd and returns the messages it produced, skipping timers.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestViewShowsStatus(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.frame()
	if !strings.Contains(view, "offline") || !strings.Contains(view, "Chat") {
		t.Error("expected header with title and status")
	}
}
