// Package cohere provides an embedding service adapter using the Cohere
// v2 embed API.
//
// Documents and queries are embedded with different input types
// (search_document and search_query) so that the two sides of a retrieval
// land in compatible regions of the vector space.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "embed-english-v3.0"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the largest number of texts the API accepts per call.
	MaxBatchSize = 96
)

const (
	inputTypeDocument = "search_document"
	inputTypeQuery    = "search_query"
)

var modelDimensions = map[string]int{
	"embed-english-v3.0":            1024,
	"embed-multilingual-v3.0":       1024,
	"embed-english-light-v3.0":      384,
	"embed-multilingual-light-v3.0": 384,
	"embed-v4.0":                    1536,
}

// Config holds configuration for the Cohere embedding service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com).
	BaseURL string

	// Model is the embedding model (default: embed-english-v3.0).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using Cohere.
type EmbeddingService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	ID         string `json:"id"`
	Embeddings struct {
		Float [][]float64 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

// NewEmbeddingService creates a new Cohere embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigError("embedding.api_key", "required for cohere")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// EmbedDocuments embeds texts for indexing, splitting them into calls of
// at most MaxBatchSize texts.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))
		batch, err := s.embed(ctx, "embed documents", inputTypeDocument, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// EmbedQuery embeds a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.embed(ctx, "embed query", inputTypeQuery, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (s *EmbeddingService) embed(ctx context.Context, op, inputType string, texts []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{
		Model:          s.model,
		Texts:          texts,
		InputType:      inputType,
		EmbeddingTypes: []string{"float"},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("cohere: create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	var embedResp embedResponse
	decodeErr := json.Unmarshal(body, &embedResp)

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if decodeErr == nil && embedResp.Message != "" {
			msg = embedResp.Message
		}
		return nil, &domain.EmbeddingServiceError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return nil, &domain.EmbeddingServiceError{Op: op, StatusCode: resp.StatusCode, Err: decodeErr}
	}

	vectors := embedResp.Embeddings.Float
	if len(vectors) != len(texts) {
		return nil, domain.NewContractViolation("cohere returned %d embeddings for %d inputs", len(vectors), len(texts))
	}

	embeddings := make([][]float32, len(vectors))
	for i, values := range vectors {
		embedding := make([]float32, len(values))
		for j, v := range values {
			embedding[j] = float32(v)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

func (s *EmbeddingService) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// Dimensions returns the embedding vector size, or 0 for unknown models.
func (s *EmbeddingService) Dimensions() int {
	return modelDimensions[s.model]
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models?page_size=1", http.NoBody)
	if err != nil {
		return fmt.Errorf("cohere: failed to create ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.EmbeddingServiceError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.EmbeddingServiceError{Op: "ping", StatusCode: resp.StatusCode, Err: errors.New(string(body))}
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
