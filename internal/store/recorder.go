package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/chat"
)

const recorderBuffer = 256

// ChatRecorder writes chat engine events to the event log from a
// background goroutine so the engine never waits on SQLite.
type ChatRecorder struct {
	repo EventRepo
	log  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	events chan chat.Event
	done   chan struct{}
}

// NewChatRecorder starts the writer goroutine. Call Close to flush it.
func NewChatRecorder(repo EventRepo, log zerolog.Logger) *ChatRecorder {
	r := &ChatRecorder{
		repo:   repo,
		log:    log,
		events: make(chan chat.Event, recorderBuffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Observe queues ev. Events are dropped with a warning when the buffer
// is full.
func (r *ChatRecorder) Observe(ev chat.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
		r.log.Warn().Str("kind", string(ev.Kind)).Msg("chat event buffer full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (r *ChatRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *ChatRecorder) run() {
	defer close(r.done)
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.AppendChatEvent(ctx, ChatEventFrom(ev)); err != nil {
			r.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("record chat event")
		}
		cancel()
	}
}

// ChatEventFrom flattens an engine event into a row.
func ChatEventFrom(ev chat.Event) ChatEventData {
	d := ChatEventData{
		SessionID: ev.SessionID,
		Tab:       string(ev.Tab),
		MessageID: ev.Message.ID,
		Kind:      string(ev.Kind),
		Author:    string(ev.Message.Author),
		Status:    string(ev.Message.Status),
		Attempts:  ev.Message.Attempts,
		Content:   ev.Message.Content,
		Error:     ev.Message.LastError,
		Timestamp: ev.Time,
	}
	if ev.Kind == chat.EventFailed {
		d.Failure = ev.Failure.String()
	}
	if ev.Message.Attachment != nil {
		d.AttachmentKind = ev.Message.Attachment.Kind
	}
	return d
}
