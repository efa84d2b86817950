// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	cohereembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/cohere"
	compatembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/compatible"
	ollamaembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/anthropic"
	coherellm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/cohere"
	compatllm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/compatible"
	ollamallm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// rateLimitBurst is the token bucket size for rate-limited embedding calls.
const rateLimitBurst = 1

// InitResult holds the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates the embedding and LLM services. With ping set, both
// are checked for connectivity and an unreachable service is an error
// wrapping the matching unavailable sentinel.
func Initialise(ctx context.Context, settings *domain.Settings, ping bool) (*InitResult, error) {
	embedding, err := CreateEmbeddingService(ctx, &settings.Embedding, settings.RequestTimeout)
	if err != nil {
		return nil, err
	}

	llm, err := CreateLLMService(ctx, &settings.LLM, settings.RequestTimeout)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	result := &InitResult{EmbeddingService: embedding, LLMService: llm}
	if !ping {
		return result, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := embedding.Ping(pingCtx); err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, err)
	}
	if err := llm.Ping(pingCtx); err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, settings.LLM.Provider, err)
	}
	return result, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// Unset settings have nothing to validate.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || settings.Provider == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, settings, 0)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// Unset settings have nothing to validate.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || settings.Provider == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings, 0)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings,
// rate limited when settings.RateLimit is positive. A zero timeout keeps
// the adapter default.
func CreateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings, timeout time.Duration,
) (driven.EmbeddingService, error) {
	if err := checkProvider("embedding", settings.Provider, settings.APIKey, settings.BaseURL); err != nil {
		return nil, err
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderCohere:
		svc, err = cohereembed.NewEmbeddingService(cohereembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderOllama:
		dimensions := domain.EmbeddingDimensions()[settings.Model]
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dimensions,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderOpenAICompatible:
		svc, err = compatembed.NewEmbeddingService(ctx, compatembed.Config{
			BaseURL:    settings.BaseURL,
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderAnthropic:
		return nil, domain.NewConfigError("embedding.provider", "anthropic does not support embeddings")
	}
	if err != nil {
		return nil, err
	}

	return ratelimit.Wrap(svc, settings.RateLimit, rateLimitBurst), nil
}

// CreateLLMService creates the LLM service selected by settings.
// A zero timeout keeps the adapter default.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	if err := checkProvider("llm", settings.Provider, settings.APIKey, settings.BaseURL); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderCohere:
		return coherellm.NewLLMService(coherellm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return compatllm.NewLLMService(ctx, compatllm.Config{
			BaseURL: settings.BaseURL,
			APIKey:  settings.APIKey,
			Model:   settings.Model,
		})
	}
}

// checkProvider reports a missing or incomplete provider as a ConfigError
// against the settings section.
func checkProvider(section string, provider domain.AIProvider, apiKey, baseURL string) error {
	if !provider.IsValid() {
		return domain.NewConfigError(section+".provider", "unknown provider %q", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewConfigError(section+".api_key", "required for %s", provider)
	}
	if provider.RequiresBaseURL() && baseURL == "" {
		return domain.NewConfigError(section+".base_url", "required for %s", provider)
	}
	return nil
}
