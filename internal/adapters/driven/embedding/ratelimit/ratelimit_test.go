package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *countingEmbedder) Dimensions() int              { return 1 }
func (c *countingEmbedder) ModelName() string            { return "counting" }
func (c *countingEmbedder) Ping(_ context.Context) error { return nil }
func (c *countingEmbedder) Close() error                 { return nil }

func TestWrap_DisabledReturnsService(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, Wrap(inner, 0, 1))
}

func TestWrap_PassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	svc := Wrap(inner, 1000, 10)

	got, err := svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.EmbedQuery(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "counting", svc.ModelName())
	assert.Equal(t, 1, svc.Dimensions())
}

func TestWrap_ThrottlesToRate(t *testing.T) {
	svc := Wrap(&countingEmbedder{}, 20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.EmbedQuery(context.Background(), "a")
		require.NoError(t, err)
	}

	// One token up front, two more at 50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestWrap_CooldownAfter429(t *testing.T) {
	inner := &countingEmbedder{err: &domain.EmbeddingServiceError{Op: "embed", StatusCode: http.StatusTooManyRequests}}
	svc := Wrap(inner, 1000, 10).(*EmbeddingService)
	svc.cooldown = time.Hour

	_, err := svc.EmbedQuery(context.Background(), "a")
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.EmbedQuery(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestWrap_OtherErrorsNoCooldown(t *testing.T) {
	inner := &countingEmbedder{err: &domain.EmbeddingServiceError{Op: "embed", StatusCode: http.StatusBadRequest}}
	svc := Wrap(inner, 1000, 10).(*EmbeddingService)
	svc.cooldown = time.Hour

	_, _ = svc.EmbedQuery(context.Background(), "a")
	_, _ = svc.EmbedQuery(context.Background(), "a")
	assert.Equal(t, 2, inner.calls)
}
