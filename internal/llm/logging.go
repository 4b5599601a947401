package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/store"
)

// LoggingProvider records every call in the event log and the process log.
type LoggingProvider struct {
	inner  Provider
	events store.LLMEventWriter
	log    zerolog.Logger
}

// WithLogging wraps p. events may be nil, in which case only the process
// log is written.
func WithLogging(p Provider, events store.LLMEventWriter, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, events: events, log: log}
}

func (l *LoggingProvider) Name() string    { return l.inner.Name() }
func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	ev := store.LLMRequestEventData{
		SessionID:   SessionFrom(ctx),
		Provider:    l.inner.Name(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = resp.Text
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	entry := l.log.Debug()
	if err != nil {
		entry = l.log.Warn().Err(err)
	}
	entry.Str("provider", ev.Provider).
		Str("model", ev.Model).
		Str("purpose", ev.Purpose).
		Dur("latency", elapsed).
		Int("input_tokens", ev.InputTokens).
		Int("output_tokens", ev.OutputTokens).
		Msg("llm request")

	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(ctx, ev); logErr != nil {
			l.log.Warn().Err(logErr).Msg("record llm request")
		}
	}
	return resp, err
}

// renderRequest flattens a request into the text stored with the event.
func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
