package chat

import (
	"fmt"
	"sync"
)

// AppendFunc is notified after a message is appended to a tab. The view
// layer uses it to scroll to the bottom.
type AppendFunc func(tab Tab, msg Message)

// Store owns every tab's conversation. Each tab is an ordered,
// append-only sequence that always starts with a welcome message.
type Store struct {
	mu        sync.RWMutex
	convs     map[Tab][]Message
	listeners []AppendFunc
}

// NewStore creates a store with one seeded welcome message per tab.
func NewStore() *Store {
	s := &Store{convs: make(map[Tab][]Message, len(AllTabs()))}
	for _, t := range AllTabs() {
		s.convs[t] = []Message{WelcomeMessage(t)}
	}
	return s
}

// OnAppend registers a listener for appends on any tab.
func (s *Store) OnAppend(fn AppendFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Conversation returns a copy of the tab's messages in order.
func (s *Store) Conversation(tab Tab) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv := s.convs[tab]
	out := make([]Message, len(conv))
	copy(out, conv)
	return out
}

// Len returns the number of messages in the tab.
func (s *Store) Len(tab Tab) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs[tab])
}

// Find looks up a message by id within a tab.
func (s *Store) Find(tab Tab, id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.convs[tab] {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// HasPending reports whether any message in the tab awaits settlement.
func (s *Store) HasPending(tab Tab) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.convs[tab] {
		if m.Pending() {
			return true
		}
	}
	return false
}

// Append adds msg to the end of the tab's conversation.
func (s *Store) Append(tab Tab, msg Message) error {
	s.mu.Lock()
	conv, ok := s.convs[tab]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("append: unknown tab %q", tab)
	}
	s.convs[tab] = append(conv, msg)
	listeners := make([]AppendFunc, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	// Listeners run outside the lock so they may read the store.
	for _, fn := range listeners {
		fn(tab, msg)
	}
	return nil
}

// Replace swaps the message with the given id in place. The replacement
// keeps the original id. Returns ErrMessageNotFound when the id is absent.
func (s *Store) Replace(tab Tab, id string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.convs[tab]
	for i := range conv {
		if conv[i].ID == id {
			msg.ID = id
			conv[i] = msg
			return nil
		}
	}
	return fmt.Errorf("replace %s in %s: %w", id, tab, ErrMessageNotFound)
}
