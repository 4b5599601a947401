package chat

import (
	"errors"
	"testing"
)

func TestNewStoreSeedsEveryTab(t *testing.T) {
	s := NewStore()
	for _, tab := range AllTabs() {
		conv := s.Conversation(tab)
		if len(conv) != 1 {
			t.Fatalf("%s: %d messages, want 1", tab, len(conv))
		}
		m := conv[0]
		if m.Author != AuthorAssistant || m.Status != StatusConfirmed {
			t.Errorf("%s: seed = %+v", tab, m)
		}
	}

	seed := s.Conversation(TabProgress)[0]
	if seed.Attachment == nil || seed.Attachment.Kind != KindProgress {
		t.Errorf("progress seed attachment = %+v", seed.Attachment)
	}
}

func TestConversationReturnsCopy(t *testing.T) {
	s := NewStore()
	conv := s.Conversation(TabHome)
	conv[0].Content = "mutated"
	if s.Conversation(TabHome)[0].Content == "mutated" {
		t.Error("Conversation should return a copy")
	}
}

func TestAppendNotifiesListeners(t *testing.T) {
	s := NewStore()
	var got []Tab
	s.OnAppend(func(tab Tab, _ Message) {
		// Reading inside the listener must not deadlock.
		_ = s.Len(tab)
		got = append(got, tab)
	})

	if err := s.Append(TabReview, NewUserMessage("hi")); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != TabReview {
		t.Errorf("listener calls = %v", got)
	}
	if err := s.Append(Tab("nope"), NewUserMessage("x")); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestReplaceKeepsPositionAndID(t *testing.T) {
	s := NewStore()
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	_ = s.Append(TabHome, a)
	_ = s.Append(TabHome, b)

	updated := a
	updated.ID = "ignored"
	updated.Status = StatusFailed
	if err := s.Replace(TabHome, a.ID, updated); err != nil {
		t.Fatal(err)
	}

	conv := s.Conversation(TabHome)
	if conv[1].ID != a.ID || conv[1].Status != StatusFailed {
		t.Errorf("replaced = %+v", conv[1])
	}
	if conv[2].ID != b.ID {
		t.Error("order changed")
	}
}

func TestReplaceUnknownID(t *testing.T) {
	s := NewStore()
	err := s.Replace(TabHome, "missing", NewUserMessage("x"))
	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
	if s.Len(TabHome) != 1 {
		t.Error("replace of unknown id should be a no-op")
	}
}

func TestSetActiveTab(t *testing.T) {
	sess := NewSession()
	if sess.ActiveTab() != TabHome {
		t.Errorf("initial tab = %s", sess.ActiveTab())
	}
	if err := sess.SetActiveTab(TabExplore); err != nil {
		t.Fatal(err)
	}
	if sess.ActiveTab() != TabExplore {
		t.Errorf("active = %s", sess.ActiveTab())
	}
	if err := sess.SetActiveTab(Tab("bogus")); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		in      string
		want    Tab
		wantErr bool
	}{
		{"home", TabHome, false},
		{" Review ", TabReview, false},
		{"EXPLORE", TabExplore, false},
		{"settings", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTab(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTab(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTab(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusConfirmed, false},
		{StatusConfirmed, StatusPending, false},
		{StatusConfirmed, StatusFailed, false},
	}
	for _, tt := range tests {
		if got := validTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
