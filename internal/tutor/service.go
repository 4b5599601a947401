package tutor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
)

// Config holds tutor reply settings.
type Config struct {
	// HistoryTurns is how many user/assistant exchanges are replayed to
	// the model per tab.
	HistoryTurns int     `yaml:"history_turns"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
}

// DefaultConfig returns the default reply settings.
func DefaultConfig() Config {
	return Config{HistoryTurns: 12, MaxTokens: 800, Temperature: 0.4}
}

// Service answers chat messages. It implements chat.Transport so it can
// be used in-process or behind the HTTP server.
type Service struct {
	llm      llm.Provider
	assessor *Assessor
	cfg      Config
	log      zerolog.Logger

	mu      sync.Mutex
	history map[historyKey][]llm.Message
}

type historyKey struct {
	session string
	tab     chat.Tab
}

// NewService creates a tutor. p may be nil; the tutor then answers with
// offline replies and template assessments.
func NewService(p llm.Provider, cfg Config, log zerolog.Logger) *Service {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultConfig().HistoryTurns
	}
	return &Service{
		llm:      p,
		assessor: NewAssessor(p, log),
		cfg:      cfg,
		log:      log,
		history:  make(map[historyKey][]llm.Message),
	}
}

// Available reports whether a model is configured.
func (s *Service) Available() bool { return s.llm != nil }

// Assessor returns the pre-assessment agent.
func (s *Service) Assessor() *Assessor { return s.assessor }

var learnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^i\s+(?:want|would\s+like|'d\s+like)\s+to\s+learn\s+(?:about\s+)?(.+)$`),
	regexp.MustCompile(`(?i)^teach\s+me\s+(?:about\s+)?(.+)$`),
	regexp.MustCompile(`(?i)^learn\s+(?:about\s+)?(.+)$`),
}

// LearningSubject extracts the subject from a learning request such as
// "I want to learn Python". ok is false for anything else.
func LearningSubject(content string) (subject string, ok bool) {
	content = strings.TrimSpace(content)
	for _, re := range learnPatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			subject = strings.TrimSpace(strings.TrimRight(m[1], ".!? "))
			if subject != "" {
				return subject, true
			}
		}
	}
	return "", false
}

// Send answers content on tab. History is kept per session (see
// llm.WithSession) and tab.
func (s *Service) Send(ctx context.Context, tab chat.Tab, content string) (*chat.Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &chat.RejectedError{Reason: "message is empty"}
	}
	if !tab.Valid() {
		return nil, &chat.RejectedError{Reason: fmt.Sprintf("unknown tab %q", tab)}
	}

	if subject, ok := LearningSubject(content); ok {
		return s.assess(ctx, subject)
	}
	if s.llm == nil {
		return &chat.Reply{Content: offlineReplies[tab]}, nil
	}

	key := historyKey{session: llm.SessionFrom(ctx), tab: tab}
	msgs := append(s.History(key.session, tab), llm.Message{Role: llm.RoleUser, Content: content})

	resp, err := s.llm.Generate(llm.WithPurpose(ctx, llm.PurposeChatReply), llm.Request{
		System:      systemPrompt(tab),
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, replyError(err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, errors.New("tutor returned an empty reply")
	}

	s.remember(key, llm.Message{Role: llm.RoleUser, Content: content}, llm.Message{Role: llm.RoleAssistant, Content: text})
	return &chat.Reply{Content: text}, nil
}

// Assess runs the pre-assessment for a learning request.
func (s *Service) Assess(ctx context.Context, request string) (chat.Assessment, error) {
	return s.assessor.Assess(ctx, request)
}

func (s *Service) assess(ctx context.Context, subject string) (*chat.Reply, error) {
	a, err := s.assessor.Assess(ctx, subject)
	if err != nil {
		return nil, err
	}
	att, err := chat.NewAttachment(chat.KindAssessment, a)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Before we build your learning path for %s, tell me a bit about yourself:\n", subject)
	for i, q := range a.Questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}
	return &chat.Reply{Content: b.String(), Attachment: att}, nil
}

// History returns a copy of the remembered turns for session and tab.
func (s *Service) History(session string, tab chat.Tab) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[historyKey{session: session, tab: tab}]
	out := make([]llm.Message, len(h))
	copy(out, h)
	return out
}

// Forget drops every tab's history for session.
func (s *Service) Forget(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.history {
		if k.session == session {
			delete(s.history, k)
		}
	}
}

func (s *Service) remember(key historyKey, msgs ...llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[key], msgs...)
	if over := len(h) - 2*s.cfg.HistoryTurns; over > 0 {
		h = append([]llm.Message(nil), h[over:]...)
	}
	s.history[key] = h
}

// replyError maps model errors onto chat failure kinds. A request the
// provider refused as malformed will not succeed on retry.
func replyError(err error) error {
	if llm.Unavailable(err) {
		return err
	}
	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) && len(inv.Content) == 0 {
		return &chat.RejectedError{Reason: "the tutor could not process this message", Err: err}
	}
	return err
}
