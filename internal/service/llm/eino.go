package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"FinAdvisor/internal/domain/service"
)

// generator is the part of an eino chat model the adapter needs.
type generator interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// EinoModel adapts an eino chat model to service.LanguageModel.
type EinoModel struct {
	cm       generator
	provider string
}

var _ service.LanguageModel = (*EinoModel)(nil)

// NewOpenAI builds an OpenAI-compatible chat model.
func NewOpenAI(ctx context.Context, cfg Config) (*EinoModel, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return &EinoModel{cm: cm, provider: ProviderOpenAI}, nil
}

// NewDeepSeek builds a DeepSeek chat model.
func NewDeepSeek(ctx context.Context, cfg Config) (*EinoModel, error) {
	cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek chat model: %w", err)
	}
	return &EinoModel{cm: cm, provider: ProviderDeepSeek}, nil
}

func (m *EinoModel) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	msgs := make([]*schema.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case service.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(msg.Content))
		case service.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(msg.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(msg.Content))
		}
	}

	opts := []model.Option{model.WithTemperature(float32(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}

	out, err := m.cm.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", m.provider, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", service.ErrEmptyCompletion
	}
	return out.Content, nil
}
