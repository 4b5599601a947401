package chat

import (
	"encoding/json"
	"fmt"
)

// Attachment kinds produced by this package and the tutor backend.
const (
	KindProgress   = "progress"
	KindHelp       = "help"
	KindFlashcards = "flashcards"
	KindTopics     = "topics"
	KindAssessment = "assessment"
)

// ProgressSummary is the payload of a progress attachment.
type ProgressSummary struct {
	Sent      int         `json:"sent"`
	Confirmed int         `json:"confirmed"`
	Failed    int         `json:"failed"`
	Retries   int         `json:"retries"`
	PerTab    map[Tab]int `json:"per_tab,omitempty"`
}

// HelpEntry is one line of a help card.
type HelpEntry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// HelpCard is the payload of a help attachment.
type HelpCard struct {
	Entries []HelpEntry `json:"entries"`
}

// Flashcard is a single review card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardDeck is the payload of a flashcards attachment.
type FlashcardDeck struct {
	Cards []Flashcard `json:"cards"`
}

// TopicList is the payload of a topics attachment.
type TopicList struct {
	Topics []string `json:"topics"`
}

// Assessment is the payload of an assessment attachment: questions the
// tutor asks before building a learning path.
type Assessment struct {
	Questions []string `json:"questions"`
}

// Decode unmarshals the attachment payload into v.
func (a *Attachment) Decode(v any) error {
	if a == nil || len(a.Data) == 0 {
		return fmt.Errorf("empty %s attachment", a.kind())
	}
	return json.Unmarshal(a.Data, v)
}

func (a *Attachment) kind() string {
	if a == nil {
		return "nil"
	}
	return a.Kind
}

// mustAttachment is for payloads built from plain structs that always marshal.
func mustAttachment(kind string, v any) *Attachment {
	att, err := NewAttachment(kind, v)
	if err != nil {
		panic(fmt.Sprintf("marshal %s attachment: %v", kind, err))
	}
	return att
}

// WelcomeMessage returns the seeded assistant message for a fresh tab.
func WelcomeMessage(tab Tab) Message {
	switch tab {
	case TabProgress:
		return NewAssistantMessage(
			"Here's where you stand. Ask me anything about your progress.",
			mustAttachment(KindProgress, ProgressSummary{}),
		)
	case TabReview:
		return NewAssistantMessage("Ready to review? Ask for flashcards or quiz yourself on anything you've covered.", nil)
	case TabExplore:
		return NewAssistantMessage("Curious about something new? Tell me what you want to learn and I'll suggest a path.", nil)
	default:
		return NewAssistantMessage("Hi! I'm your AI tutor. What would you like to work on today?", nil)
	}
}
