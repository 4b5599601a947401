package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/store"
)

type recordingWriter struct {
	events []store.LLMRequestEventData
	err    error
}

func (w *recordingWriter) AppendLLMRequest(_ context.Context, ev store.LLMRequestEventData) error {
	w.events = append(w.events, ev)
	return w.err
}

func TestMockProviderFIFO(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "first", Usage: newUsage(3, 2)}, MockResponse{Text: "second"})

	r1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "a"}}})
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := mock.Generate(context.Background(), Request{})
	if r1.Text != "first" || r2.Text != "second" {
		t.Errorf("got %q, %q", r1.Text, r2.Text)
	}
	if r1.Usage.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d", r1.Usage.TotalTokens)
	}
	if calls := mock.Calls(); len(calls) != 2 || calls[0].Messages[0].Content != "a" {
		t.Errorf("calls = %+v", calls)
	}

	_, err = mock.Generate(context.Background(), Request{})
	if !Unavailable(err) {
		t.Errorf("empty queue err = %v", err)
	}
}

func TestLoggingRecordsEvent(t *testing.T) {
	w := &recordingWriter{}
	mock := NewMockProvider(MockResponse{Text: "hi", Usage: newUsage(10, 4)})
	p := WithLogging(mock, w, zerolog.Nop())

	ctx := WithSession(WithPurpose(context.Background(), PurposeChatReply), "sess-1")
	if _, err := p.Generate(ctx, Request{System: "be kind", Messages: []Message{{Role: RoleUser, Content: "hello"}}}); err != nil {
		t.Fatal(err)
	}

	if len(w.events) != 1 {
		t.Fatalf("events = %d", len(w.events))
	}
	ev := w.events[0]
	if ev.Purpose != PurposeChatReply || ev.SessionID != "sess-1" || ev.Provider != ProviderMock {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 10 || ev.OutputTokens != 4 || ev.ResponseBody != "hi" {
		t.Errorf("event = %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nbe kind") || !strings.Contains(ev.RequestBody, "[user]\nhello") {
		t.Errorf("request body = %q", ev.RequestBody)
	}
}

func TestLoggingSurvivesWriterFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	p := WithLogging(mock, w, zerolog.Nop())

	_, err := p.Generate(context.Background(), Request{})
	if !Unavailable(err) {
		t.Fatalf("err = %v", err)
	}
	if len(w.events) != 1 || w.events[0].Success || w.events[0].ErrorMessage == "" {
		t.Errorf("events = %+v", w.events)
	}
	if w.events[0].Purpose != "unknown" {
		t.Errorf("purpose = %q", w.events[0].Purpose)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default none", func(*Config) {}, false},
		{"mock", func(c *Config) { c.Provider = ProviderMock }, false},
		{"anthropic without key", func(c *Config) { c.Provider = ProviderAnthropic }, true},
		{"anthropic with key", func(c *Config) { c.Provider = ProviderAnthropic; c.Anthropic.APIKey = "k" }, false},
		{"unknown", func(c *Config) { c.Provider = "llamas" }, true},
		{"zero attempts", func(c *Config) {
			c.Provider = ProviderOpenAI
			c.OpenAI.APIKey = "k"
			c.Retry.MaxAttempts = 0
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTORCHAT_LLM_PROVIDER", "gemini")
	t.Setenv("TUTORCHAT_GEMINI_API_KEY", "g-key")
	t.Setenv("TUTORCHAT_GEMINI_MODEL", "gemini-pro")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" || cfg.Gemini.Model != "gemini-pro" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("untouched default changed: %q", cfg.OpenAI.Model)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no config")
	}

	t.Setenv("OPENAI_API_KEY", "o-key")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "o-key" {
		t.Errorf("cfg = %+v, ok = %v", cfg, ok)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, zerolog.Nop())
	if err != nil || p != nil {
		t.Fatalf("unconfigured: p = %v, err = %v", p, err)
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err = NewProvider(context.Background(), cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != ProviderMock || p.ModelID() != "mock" {
		t.Errorf("provider = %s/%s", p.Name(), p.ModelID())
	}

	cfg.Provider = ProviderAnthropic
	if _, err := NewProvider(context.Background(), cfg, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for anthropic without key")
	}
}

func TestPricing(t *testing.T) {
	p, ok := PriceFor("gpt-4o-mini")
	if !ok {
		t.Fatal("gpt-4o-mini missing")
	}
	if got := p.Cost(1_000_000, 1_000_000); got != 0.75 {
		t.Errorf("Cost = %v, want 0.75", got)
	}
	if EstimateCost("nobody-knows", 100, 100) != 0 {
		t.Error("unknown model should cost 0")
	}
}
