package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/store"
)

// NewProvider builds the configured provider wrapped as
// retry -> logging -> base, so every attempt is recorded. It returns
// (nil, nil) when no provider is configured.
func NewProvider(ctx context.Context, cfg Config, events store.LLMEventWriter, log zerolog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderMock:
		base = NewMockProvider()
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	var p Provider = WithLogging(base, events, log)
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}
