package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Status is the delivery status of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// MaxAttempts is the total number of delivery attempts a user message may
// have: the original send plus two retries.
const MaxAttempts = 3

// Attachment is an opaque structured payload rendered next to a message,
// e.g. a progress summary or a flashcard deck. The engine never looks
// inside Data.
type Attachment struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewAttachment marshals v into an Attachment of the given kind.
func NewAttachment(kind string, v any) (*Attachment, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Attachment{Kind: kind, Data: data}, nil
}

// Message is a single turn in a conversation.
type Message struct {
	ID         string      `json:"id"`
	Author     Author      `json:"author"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Status     Status      `json:"status"`
	Attempts   int         `json:"attempts"`
	LastError  string      `json:"last_error,omitempty"`
}

// NewUserMessage returns a pending user message on its first attempt.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    AuthorUser,
		Content:   content,
		CreatedAt: time.Now(),
		Status:    StatusPending,
		Attempts:  1,
	}
}

// NewAssistantMessage returns a confirmed assistant message.
func NewAssistantMessage(content string, att *Attachment) Message {
	return Message{
		ID:         uuid.NewString(),
		Author:     AuthorAssistant,
		Content:    content,
		CreatedAt:  time.Now(),
		Attachment: att,
		Status:     StatusConfirmed,
	}
}

// Pending reports whether the message is awaiting settlement.
func (m Message) Pending() bool { return m.Status == StatusPending }

// Failed reports whether the last delivery attempt failed.
func (m Message) Failed() bool { return m.Status == StatusFailed }

// CanRetry reports whether another attempt is allowed.
func (m Message) CanRetry() bool {
	return m.Status == StatusFailed && m.Attempts < MaxAttempts
}

// validTransition encodes the delivery lifecycle. Confirmed is terminal.
func validTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusFailed
	case StatusFailed:
		return to == StatusPending
	}
	return false
}
