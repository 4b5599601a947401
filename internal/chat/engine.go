package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Config tunes the engine and the retry coordinator.
type Config struct {
	// SendTimeout bounds a single delivery attempt. Zero disables it.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// MaxContentLength is the longest accepted message, in runes.
	MaxContentLength int `yaml:"max_content_length"`

	// AutoRetry enables automatic retries for transient failures.
	AutoRetry bool `yaml:"auto_retry"`

	// AutoRetryDelay is the wait before an automatic retry.
	AutoRetryDelay time.Duration `yaml:"auto_retry_delay"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SendTimeout:      30 * time.Second,
		MaxContentLength: 4000,
		AutoRetry:        true,
		AutoRetryDelay:   1500 * time.Millisecond,
	}
}

// Dispatch identifies one delivery attempt of a user message.
type Dispatch struct {
	Tab       Tab
	MessageID string
	Content   string
	Attempt   int
}

// Outcome is the result of sending a Dispatch.
type Outcome struct {
	Dispatch
	Reply *Reply
	Err   error
}

// Settlement reports how an Outcome was reconciled.
type Settlement struct {
	Dispatch
	Status  Status
	Failure FailureKind
	Reason  string

	// Terminal is set when the failure used the last attempt.
	Terminal bool

	// AutoRetry is set when the failure is eligible for an automatic retry.
	AutoRetry bool

	// Stale is set when the outcome no longer matched the message (it was
	// already settled or superseded) and was ignored.
	Stale bool
}

// Engine applies optimistic appends and reconciles them once the
// transport settles. It is the only writer of the session's store.
type Engine struct {
	mu        sync.Mutex
	session   *Session
	transport Transport
	cfg       Config
	log       zerolog.Logger
	observers []Observer
}

// NewEngine creates an engine for session that delivers through transport.
func NewEngine(session *Session, transport Transport, cfg Config, log zerolog.Logger, observers ...Observer) *Engine {
	return &Engine{
		session:   session,
		transport: transport,
		cfg:       cfg,
		log:       log.With().Str("session_id", session.ID).Logger(),
		observers: observers,
	}
}

// Session returns the session the engine writes to.
func (e *Engine) Session() *Session { return e.session }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// AddObserver registers an observer for subsequent events.
func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

// Submit optimistically appends a user message to the active tab and
// returns the Dispatch to send. Nothing is appended when the content is
// invalid or the tab already has a message awaiting settlement.
func (e *Engine) Submit(content string) (Dispatch, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Dispatch{}, &ValidationError{Reason: "message is empty"}
	}
	if e.cfg.MaxContentLength > 0 && utf8.RuneCountInString(content) > e.cfg.MaxContentLength {
		return Dispatch{}, &ValidationError{Reason: fmt.Sprintf("message is longer than %d characters", e.cfg.MaxContentLength)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tab := e.session.ActiveTab()
	store := e.session.Store()
	if store.HasPending(tab) {
		return Dispatch{}, ErrAlreadySending
	}

	msg := NewUserMessage(content)
	if err := store.Append(tab, msg); err != nil {
		return Dispatch{}, err
	}
	e.emit(EventAppended, tab, msg, 0)

	return Dispatch{Tab: tab, MessageID: msg.ID, Content: content, Attempt: msg.Attempts}, nil
}

// Send delivers d through the transport. It does not touch session state
// and may run on any goroutine.
func (e *Engine) Send(ctx context.Context, d Dispatch) Outcome {
	if e.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SendTimeout)
		defer cancel()
	}

	reply, err := e.transport.Send(ctx, d.Tab, d.Content)
	if err == nil && reply == nil {
		err = errors.New("empty reply from tutor")
	}
	return Outcome{Dispatch: d, Reply: reply, Err: err}
}

// Settle reconciles an outcome with the session: the message is confirmed
// and the reply appended, or the message is marked failed.
func (e *Engine) Settle(o Outcome) Settlement {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Settlement{Dispatch: o.Dispatch}
	store := e.session.Store()

	msg, ok := store.Find(o.Tab, o.MessageID)
	if !ok || msg.Status != StatusPending || msg.Attempts != o.Attempt {
		e.log.Warn().
			Str("tab", string(o.Tab)).
			Str("message_id", o.MessageID).
			Int("attempt", o.Attempt).
			Msg("ignoring stale settlement")
		s.Stale = true
		s.Status = msg.Status
		return s
	}

	if o.Err == nil {
		msg.Status = StatusConfirmed
		msg.LastError = ""
		e.replace(o.Tab, msg)
		e.emit(EventConfirmed, o.Tab, msg, 0)

		reply := NewAssistantMessage(o.Reply.Content, o.Reply.Attachment)
		if err := store.Append(o.Tab, reply); err != nil {
			e.log.Error().Err(err).Msg("append reply")
		} else {
			e.emit(EventReply, o.Tab, reply, 0)
		}
		e.session.setTerminal(nil)

		s.Status = StatusConfirmed
		return s
	}

	kind, reason := Classify(o.Err)
	msg.Status = StatusFailed
	msg.LastError = reason
	e.replace(o.Tab, msg)
	e.emit(EventFailed, o.Tab, msg, kind)

	e.log.Info().
		Str("tab", string(o.Tab)).
		Str("message_id", msg.ID).
		Int("attempt", msg.Attempts).
		Str("failure", kind.String()).
		Str("reason", reason).
		Msg("message delivery failed")

	s.Status = StatusFailed
	s.Failure = kind
	s.Reason = reason
	if msg.Attempts >= MaxAttempts {
		e.raiseTerminal(o.Tab, msg)
		s.Terminal = true
		return s
	}
	s.AutoRetry = e.cfg.AutoRetry && kind == FailureTransient
	return s
}

// Retry moves a failed message back to pending and returns a Dispatch for
// the next attempt. Identity, content and position are preserved. Once
// the message has used every attempt the session enters terminal error
// and ErrRetryExhausted is returned.
func (e *Engine) Retry(tab Tab, id string) (Dispatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	store := e.session.Store()
	msg, ok := store.Find(tab, id)
	if !ok {
		return Dispatch{}, fmt.Errorf("retry %s: %w", id, ErrMessageNotFound)
	}
	if !validTransition(msg.Status, StatusPending) {
		return Dispatch{}, ErrNotRetryable
	}
	if msg.Attempts >= MaxAttempts {
		e.raiseTerminal(tab, msg)
		return Dispatch{}, ErrRetryExhausted
	}
	if store.HasPending(tab) {
		return Dispatch{}, ErrAlreadySending
	}

	msg.Attempts++
	msg.Status = StatusPending
	msg.LastError = ""
	e.replace(tab, msg)
	e.emit(EventRetried, tab, msg, 0)

	return Dispatch{Tab: tab, MessageID: msg.ID, Content: msg.Content, Attempt: msg.Attempts}, nil
}

// DismissError clears the session's terminal banner.
func (e *Engine) DismissError() {
	e.session.DismissError()
}

// LatestFailed returns the most recent failed user message in the tab.
func (e *Engine) LatestFailed(tab Tab) (Message, bool) {
	conv := e.session.Store().Conversation(tab)
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Author == AuthorUser && conv[i].Failed() {
			return conv[i], true
		}
	}
	return Message{}, false
}

func (e *Engine) raiseTerminal(tab Tab, msg Message) {
	e.session.setTerminal(&TerminalError{Tab: tab, MessageID: msg.ID, Reason: msg.LastError})
	e.emit(EventTerminal, tab, msg, 0)
}

// replace must be called with e.mu held.
func (e *Engine) replace(tab Tab, msg Message) {
	if err := e.session.Store().Replace(tab, msg.ID, msg); err != nil {
		e.log.Warn().Err(err).Msg("replace skipped")
	}
}

func (e *Engine) emit(kind EventKind, tab Tab, msg Message, failure FailureKind) {
	ev := Event{
		SessionID: e.session.ID,
		Kind:      kind,
		Tab:       tab,
		Message:   msg,
		Failure:   failure,
		Time:      time.Now(),
	}
	for _, o := range e.observers {
		o.Observe(ev)
	}
}
