// Package compatible provides an embedding service adapter for any
// OpenAI-compatible endpoint, built on the eino embedding component.
package compatible

import (
	"context"
	"errors"
	"fmt"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config holds configuration for an OpenAI-compatible embedding endpoint.
type Config struct {
	// BaseURL is the endpoint base URL (required).
	BaseURL string

	// APIKey is sent as a bearer token. Some local servers accept any value.
	APIKey string

	// Model is the embedding model name (required).
	Model string

	// Dimensions is the embedding vector size, 0 if unknown.
	Dimensions int
}

// EmbeddingService generates embeddings through an eino Embedder.
type EmbeddingService struct {
	embedder   embedding.Embedder
	model      string
	dimensions int
}

// NewEmbeddingService creates an embedding service for an OpenAI-compatible endpoint.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.BaseURL == "" {
		return nil, domain.NewConfigError("embedding.base_url", "required for %s", domain.AIProviderOpenAICompatible)
	}
	if cfg.Model == "" {
		return nil, domain.NewConfigError("embedding.model", "required for %s", domain.AIProviderOpenAICompatible)
	}

	embedder, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("compatible: create embedder: %w", err)
	}

	return NewWithEmbedder(embedder, cfg.Model, cfg.Dimensions), nil
}

// NewWithEmbedder wraps an existing eino Embedder.
func NewWithEmbedder(embedder embedding.Embedder, model string, dimensions int) *EmbeddingService {
	return &EmbeddingService{
		embedder:   embedder,
		model:      model,
		dimensions: dimensions,
	}
}

// EmbedDocuments embeds texts for indexing.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.embed(ctx, "embed documents", texts)
}

// EmbedQuery embeds a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.embed(ctx, "embed query", []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (s *EmbeddingService) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Op: op, Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, domain.NewContractViolation("embedder returned %d embeddings for %d inputs", len(vectors), len(texts))
	}

	// Convert float64 to float32
	result := make([][]float32, len(vectors))
	for i, vec := range vectors {
		result[i] = make([]float32, len(vec))
		for j, v := range vec {
			result[i][j] = float32(v)
		}
	}
	return result, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	vectors, err := s.embedder.EmbedStrings(ctx, []string{"ping"})
	if err != nil {
		return &domain.EmbeddingServiceError{Op: "ping", Err: err}
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return &domain.EmbeddingServiceError{Op: "ping", Err: errors.New("empty embedding returned")}
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
