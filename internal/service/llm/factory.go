package llm

import (
	"context"
	"fmt"
	"time"

	"FinAdvisor/internal/domain/service"
)

const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New returns the language model for cfg.Provider.
func New(ctx context.Context, cfg Config) (service.LanguageModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(ctx, cfg)
	case ProviderDeepSeek:
		return NewDeepSeek(ctx, cfg)
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
