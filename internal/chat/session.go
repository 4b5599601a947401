package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TerminalError is the session-level banner raised when a message has
// used all of its attempts.
type TerminalError struct {
	Tab       Tab
	MessageID string
	Reason    string
}

// Banner is the user-facing text of the error.
func (t TerminalError) Banner() string {
	return fmt.Sprintf("We couldn't reach your tutor after %d attempts (%s). Check your connection and try again.", MaxAttempts, t.Reason)
}

// Session aggregates the four conversations, the active tab pointer and
// the terminal error banner.
type Session struct {
	ID string

	store *Store

	mu       sync.RWMutex
	active   Tab
	terminal *TerminalError
}

// NewSession creates a session with freshly seeded conversations and the
// home tab active.
func NewSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		store:  NewStore(),
		active: TabHome,
	}
}

// Store returns the session's conversation store. Only the Engine writes
// to it.
func (s *Session) Store() *Store {
	return s.store
}

// ActiveTab returns the tab currently rendered and appended to.
func (s *Session) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveTab moves the active pointer. Conversations are untouched,
// including in-flight sends on other tabs.
func (s *Session) SetActiveTab(tab Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("set active tab: unknown tab %q", tab)
	}
	s.mu.Lock()
	s.active = tab
	s.mu.Unlock()
	return nil
}

// Composing reports whether an assistant reply is outstanding for the
// active tab.
func (s *Session) Composing() bool {
	return s.store.HasPending(s.ActiveTab())
}

// TerminalError returns the current banner, if any.
func (s *Session) TerminalError() (TerminalError, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.terminal == nil {
		return TerminalError{}, false
	}
	return *s.terminal, true
}

// DismissError clears the terminal banner.
func (s *Session) DismissError() {
	s.setTerminal(nil)
}

func (s *Session) setTerminal(t *TerminalError) {
	s.mu.Lock()
	s.terminal = t
	s.mu.Unlock()
}

// Progress summarizes user submissions across all tabs.
func (s *Session) Progress() ProgressSummary {
	sum := ProgressSummary{PerTab: make(map[Tab]int)}
	for _, tab := range AllTabs() {
		for _, m := range s.store.Conversation(tab) {
			if m.Author != AuthorUser {
				continue
			}
			sum.Sent++
			sum.PerTab[tab]++
			sum.Retries += m.Attempts - 1
			switch m.Status {
			case StatusConfirmed:
				sum.Confirmed++
			case StatusFailed:
				sum.Failed++
			}
		}
	}
	return sum
}
