package chat

import (
	"sort"
	"strings"
	"time"
)

// QuickAction is a canned shortcut that appends one assistant message to
// its tab and switches to it. It never creates a user message.
type QuickAction struct {
	ID    string
	Label string
	Key   string
	Tab   Tab
	build func(s *Session) Message
}

const maxFlashcards = 10

var quickActions []QuickAction

// The registry is filled in init because get-help lists the registry itself.
func init() {
	quickActions = []QuickAction{
		{
			ID:    "show-progress",
			Label: "Show progress",
			Key:   "f2",
			Tab:   TabProgress,
			build: func(s *Session) Message {
				p := s.Progress()
				content := "Here's your progress so far."
				if p.Sent == 0 {
					content = "You haven't asked anything yet. Your progress will show up here."
				}
				return NewAssistantMessage(content, mustAttachment(KindProgress, p))
			},
		},
		{
			ID:    "get-help",
			Label: "Get help",
			Key:   "f1",
			Tab:   TabHome,
			build: func(*Session) Message {
				return NewAssistantMessage("Here's what you can do.", mustAttachment(KindHelp, helpCard()))
			},
		},
		{
			ID:    "review-cards",
			Label: "Review cards",
			Key:   "f3",
			Tab:   TabReview,
			build: func(s *Session) Message {
				deck := flashcards(s)
				content := "Let's review what you've asked about."
				if len(deck.Cards) == 0 {
					content = "No cards yet. Ask a few questions and they'll turn into flashcards."
				}
				return NewAssistantMessage(content, mustAttachment(KindFlashcards, deck))
			},
		},
		{
			ID:    "explore-topics",
			Label: "Explore topics",
			Key:   "f4",
			Tab:   TabExplore,
			build: func(*Session) Message {
				return NewAssistantMessage(
					"A few places to start. Say \"I want to learn <topic>\" and I'll assess where you are.",
					mustAttachment(KindTopics, TopicList{Topics: suggestedTopics}),
				)
			},
		},
	}
}

var suggestedTopics = []string{
	"Python programming",
	"Machine learning fundamentals",
	"Web development",
	"Data structures and algorithms",
	"SQL and databases",
	"Statistics",
}

// QuickActions returns the registry in display order.
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	copy(out, quickActions)
	return out
}

// LookupQuickAction finds an action by id.
func LookupQuickAction(id string) (QuickAction, bool) {
	for _, a := range quickActions {
		if a.ID == id {
			return a, true
		}
	}
	return QuickAction{}, false
}

// QuickAction runs the action with the given id: its message is appended
// to the action's tab and that tab becomes active.
func (e *Engine) QuickAction(id string) (Message, error) {
	action, ok := LookupQuickAction(id)
	if !ok {
		return Message{}, ErrUnknownAction
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	msg := action.build(e.session)
	if err := e.session.Store().Append(action.Tab, msg); err != nil {
		return Message{}, err
	}
	if err := e.session.SetActiveTab(action.Tab); err != nil {
		return Message{}, err
	}
	e.emit(EventQuickAction, action.Tab, msg, 0)
	return msg, nil
}

func helpCard() HelpCard {
	entries := []HelpEntry{
		{Key: "enter", Description: "Send message"},
		{Key: "tab / shift+tab", Description: "Switch tab"},
		{Key: "ctrl+t", Description: "Retry the last failed message"},
		{Key: "ctrl+x", Description: "Dismiss the error banner"},
		{Key: "ctrl+o", Description: "Open transcript history"},
	}
	for _, a := range quickActions {
		entries = append(entries, HelpEntry{Key: a.Key, Description: a.Label})
	}
	return HelpCard{Entries: entries}
}

// flashcards pairs each confirmed learner question with the reply that
// followed it, newest first.
func flashcards(s *Session) FlashcardDeck {
	type card struct {
		Flashcard
		at time.Time
	}
	var cards []card
	for _, tab := range AllTabs() {
		conv := s.Store().Conversation(tab)
		for i := 0; i < len(conv)-1; i++ {
			q := conv[i]
			if q.Author != AuthorUser || q.Status != StatusConfirmed || !strings.HasSuffix(q.Content, "?") {
				continue
			}
			a := conv[i+1]
			if a.Author != AuthorAssistant {
				continue
			}
			cards = append(cards, card{Flashcard{Front: q.Content, Back: a.Content}, q.CreatedAt})
		}
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].at.After(cards[j].at) })
	if len(cards) > maxFlashcards {
		cards = cards[:maxFlashcards]
	}
	deck := FlashcardDeck{Cards: make([]Flashcard, len(cards))}
	for i, c := range cards {
		deck.Cards[i] = c.Flashcard
	}
	return deck
}
