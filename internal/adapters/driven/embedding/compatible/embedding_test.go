package compatible

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type fakeEmbedder struct {
	vectors [][]float64
	err     error
	seen    [][]string
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.seen = append(f.seen, texts)
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func TestNewEmbeddingService_RequiresBaseURLAndModel(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"no base url", Config{Model: "m"}, "embedding.base_url"},
		{"no model", Config{BaseURL: "http://localhost:8000/v1"}, "embedding.model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbeddingService(context.Background(), tt.cfg)
			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestEmbedDocuments(t *testing.T) {
	fake := &fakeEmbedder{vectors: [][]float64{{1, 0}, {0, 1}}}
	s := NewWithEmbedder(fake, "bge-small", 2)

	got, err := s.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
	assert.Equal(t, [][]string{{"a", "b"}}, fake.seen)
	assert.Equal(t, "bge-small", s.ModelName())
	assert.Equal(t, 2, s.Dimensions())
}

func TestEmbed_Errors(t *testing.T) {
	t.Run("service failure", func(t *testing.T) {
		s := NewWithEmbedder(&fakeEmbedder{err: errors.New("connection refused")}, "m", 0)

		_, err := s.EmbedQuery(context.Background(), "acid")
		var svcErr *domain.EmbeddingServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.True(t, svcErr.Retryable())
	})

	t.Run("count mismatch", func(t *testing.T) {
		s := NewWithEmbedder(&fakeEmbedder{vectors: [][]float64{{1}}}, "m", 0)

		_, err := s.EmbedDocuments(context.Background(), []string{"a", "b"})
		var violation *domain.ContractViolation
		assert.True(t, errors.As(err, &violation))
	})
}

func TestPing(t *testing.T) {
	assert.NoError(t, NewWithEmbedder(&fakeEmbedder{vectors: [][]float64{{1}}}, "m", 0).Ping(context.Background()))
	assert.Error(t, NewWithEmbedder(&fakeEmbedder{vectors: [][]float64{}}, "m", 0).Ping(context.Background()))
}
