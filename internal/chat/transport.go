package chat

import (
	"context"
	"time"
)

// Reply is what a backend returns for a delivered user message.
type Reply struct {
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Transport delivers a user message for a tab and returns the tutor's
// reply. Implementations should return *RejectedError for input the
// backend refuses; every other error is treated as transient.
type Transport interface {
	Send(ctx context.Context, tab Tab, content string) (*Reply, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, tab Tab, content string) (*Reply, error)

func (f TransportFunc) Send(ctx context.Context, tab Tab, content string) (*Reply, error) {
	return f(ctx, tab, content)
}

// EventKind names an engine state change.
type EventKind string

const (
	EventAppended    EventKind = "appended"
	EventConfirmed   EventKind = "confirmed"
	EventFailed      EventKind = "failed"
	EventRetried     EventKind = "retried"
	EventTerminal    EventKind = "terminal"
	EventQuickAction EventKind = "quick_action"
	EventReply       EventKind = "reply"
)

// Event describes one state change, delivered to observers after the
// change is applied.
type Event struct {
	SessionID string
	Kind      EventKind
	Tab       Tab
	Message   Message
	Failure   FailureKind
	Time      time.Time
}

// Observer receives engine events. Observers must not call back into the
// engine.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
