package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/aitutor/tutorchat/internal/router"
	"github.com/aitutor/tutorchat/internal/store"
)

type fakeSource struct {
	sessions    []store.SessionSummary
	transcripts map[string][]store.TranscriptEntry
	err         error
}

func (f *fakeSource) ListSessions(_ context.Context, limit int) ([]store.SessionSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sessions) > limit {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

func (f *fakeSource) Transcript(_ context.Context, id string) ([]store.TranscriptEntry, error) {
	return f.transcripts[id], f.err
}

func load(t *testing.T, s interface {
	Init() tea.Cmd
}) tea.Msg {
	t.Helper()
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected load command")
	}
	return cmd()
}

func TestHistoryListsSessions(t *testing.T) {
	now := time.Now()
	src := &fakeSource{sessions: []store.SessionSummary{
		{SessionID: "b", Started: now, Messages: 4, Failures: 1},
		{SessionID: "a", Started: now.Add(-time.Hour), Messages: 2, Terminal: 1},
	}}
	s := New(src, "b")
	s.Update(load(t, s))

	view := s.View(80, 20)
	for _, want := range []string{"(this session)", "4 messages", "1 failed", "gave up"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestHistoryEnterOpensTranscript(t *testing.T) {
	src := &fakeSource{
		sessions: []store.SessionSummary{{SessionID: "a"}, {SessionID: "b"}},
		transcripts: map[string][]store.TranscriptEntry{
			"b": {
				{Tab: "home", Author: "user", Status: "failed", Attempts: 3, Content: "are you there", Error: "timeout"},
				{Tab: "review", Author: "assistant", Status: "confirmed", Attempts: 1, Content: "Here are your cards", AttachmentKind: "flashcards"},
			},
		},
	}
	s := New(src, "")
	s.Update(load(t, s))

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected push command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	tr, ok := push.Screen.(*TranscriptScreen)
	if !ok || tr.sessionID != "b" {
		t.Fatalf("pushed %T %+v", push.Screen, push.Screen)
	}

	tr.Update(load(t, tr))
	view := tr.View(80, 30)
	for _, want := range []string{"Home", "Review", "are you there", "3 attempts", "failed: timeout", "[flashcards]"} {
		if !strings.Contains(view, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestHistoryStates(t *testing.T) {
	s := New(&fakeSource{}, "")
	if !strings.Contains(s.View(80, 10), "Loading") {
		t.Error("expected loading state")
	}
	s.Update(load(t, s))
	if !strings.Contains(s.View(80, 10), "No sessions") {
		t.Error("expected empty state")
	}

	failing := New(&fakeSource{err: errors.New("db locked")}, "")
	failing.Update(load(t, failing))
	if !strings.Contains(failing.View(80, 10), "db locked") {
		t.Error("expected error state")
	}
}
