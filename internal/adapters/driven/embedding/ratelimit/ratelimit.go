// Package ratelimit throttles calls to an embedding service.
//
// Embedding providers meter requests per minute. The limiter wraps any
// driven.EmbeddingService with a token bucket and, when the provider
// answers 429, holds every caller back for a cooldown period.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultCooldown is how long callers wait after a 429 response.
const DefaultCooldown = 10 * time.Second

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService rate limits an underlying embedding service.
type EmbeddingService struct {
	driven.EmbeddingService

	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	cooldown time.Duration
}

// Wrap limits svc to requestsPerSecond with the given burst. A
// non-positive rate returns svc unchanged.
func Wrap(svc driven.EmbeddingService, requestsPerSecond float64, burst int) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return svc
	}
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		cooldown:         DefaultCooldown,
	}
}

// EmbedDocuments waits for a token, then embeds texts.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	embeddings, err := s.EmbeddingService.EmbedDocuments(ctx, texts)
	s.record(err)
	return embeddings, err
}

// EmbedQuery waits for a token, then embeds text.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	embedding, err := s.EmbeddingService.EmbedQuery(ctx, text)
	s.record(err)
	return embedding, err
}

func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}

	return s.limiter.Wait(ctx)
}

func (s *EmbeddingService) record(err error) {
	var svcErr *domain.EmbeddingServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusTooManyRequests {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = time.Now().Add(s.cooldown)
	logger.Warn("embedding service rate limited, pausing for %s", s.cooldown)
}
