// Package compatible provides an LLM service adapter for any
// OpenAI-compatible chat endpoint, built on the eino chat model component.
package compatible

import (
	"context"
	"fmt"

	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Config holds configuration for an OpenAI-compatible chat endpoint.
type Config struct {
	// BaseURL is the endpoint base URL (required).
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the chat model name (required).
	Model string
}

// LLMService generates text through an eino chat model.
type LLMService struct {
	chat  model.BaseChatModel
	model string
}

// NewLLMService creates an LLM service for an OpenAI-compatible endpoint.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.BaseURL == "" {
		return nil, domain.NewConfigError("llm.base_url", "required for %s", domain.AIProviderOpenAICompatible)
	}
	if cfg.Model == "" {
		return nil, domain.NewConfigError("llm.model", "required for %s", domain.AIProviderOpenAICompatible)
	}

	chat, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("compatible: create chat model: %w", err)
	}

	return NewWithChatModel(chat, cfg.Model), nil
}

// NewWithChatModel wraps an existing eino chat model.
func NewWithChatModel(chat model.BaseChatModel, modelName string) *LLMService {
	return &LLMService{chat: chat, model: modelName}
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) ([]string, error) {
	callOpts := []model.Option{model.WithTemperature(float32(opts.Temperature))}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		callOpts = append(callOpts, model.WithStop(opts.StopWords))
	}

	msg, err := s.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: compatible: %v", domain.ErrLLMUnavailable, err)
	}
	if msg == nil || msg.Content == "" {
		return nil, nil
	}
	return []string{msg.Content}, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping generates a one-token reply.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.chat.Generate(ctx, []*schema.Message{schema.UserMessage("ping")}, model.WithMaxTokens(1))
	if err != nil {
		return fmt.Errorf("%w: compatible: ping failed: %v", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
