package llm

import (
	"context"
	"encoding/json"
)

// Provider generates tutor text or structured JSON from a prompt.
type Provider interface {
	// Generate sends req to the model. When req.Schema is set the
	// response JSON has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider family, e.g. "anthropic".
	Name() string

	// ModelID is the resolved model identifier.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System   string
	Messages []Message

	// Schema switches the provider into structured output mode.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one turn of conversation history.
type Message struct {
	Role    Role
	Content string
}

// Role is who sent a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema the model output must satisfy.
type Schema struct {
	// Name is kebab-case and doubles as the cache key for the compiled
	// schema, so it must be unique per definition.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is what a provider produced.
type Response struct {
	// Text is the model's text output. For schema requests it holds the
	// same bytes as JSON.
	Text string

	// JSON is set only for schema requests.
	JSON json.RawMessage

	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Decode unmarshals a structured response into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.JSON, v)
}

// Usage is token accounting for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func newUsage(in, out int) Usage {
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

// finish builds a Response from raw model text, validating it when the
// request asked for structured output.
func finish(req Request, text, model, stop string, usage Usage) (*Response, error) {
	resp := &Response{Text: text, Model: model, StopReason: stop, Usage: usage}
	if req.Schema == nil {
		return resp, nil
	}
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
	}
	raw := json.RawMessage(text)
	if err := Validate(req.Schema, raw); err != nil {
		return nil, err
	}
	resp.JSON = raw
	return resp, nil
}
