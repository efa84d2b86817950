package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestOpenVectorIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		idx, err := OpenVectorIndex(ctx, domain.IndexSettings{Backend: domain.IndexBackendMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.VectorIndex{}, idx)
	})

	t.Run("sqlite", func(t *testing.T) {
		idx, err := OpenVectorIndex(ctx, domain.IndexSettings{Backend: domain.IndexBackendSQLite, Path: t.TempDir()})
		require.NoError(t, err)
		defer idx.Close()
		assert.IsType(t, &sqlite.Store{}, idx)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		idx, err := OpenVectorIndex(ctx, domain.IndexSettings{
			Backend: domain.IndexBackendRedis,
			URL:     "redis://" + mr.Addr(),
			Prefix:  "kb",
		})
		require.NoError(t, err)
		defer idx.Close()
		assert.IsType(t, &redis.VectorIndex{}, idx)
	})
}

func TestOpenVectorIndex_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.IndexSettings
	}{
		{"unknown backend", domain.IndexSettings{Backend: "faiss"}},
		{"redis without url", domain.IndexSettings{Backend: domain.IndexBackendRedis}},
		{"postgres without url", domain.IndexSettings{Backend: domain.IndexBackendPostgres}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenVectorIndex(context.Background(), tt.settings)
			var cfgErr *domain.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}
