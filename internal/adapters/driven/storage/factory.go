// Package storage selects and opens the configured vector index backend.
package storage

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// OpenVectorIndex returns the backend named by settings.Backend.
func OpenVectorIndex(ctx context.Context, settings domain.IndexSettings) (driven.VectorIndex, error) {
	logger.Debug("opening %s vector index", settings.Backend)

	switch settings.Backend {
	case domain.IndexBackendMemory, "":
		return memory.NewVectorIndex(), nil
	case domain.IndexBackendSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.IndexBackendRedis:
		if settings.URL == "" {
			return nil, domain.NewConfigError("index.url", "required for the %s backend", settings.Backend)
		}
		idx, err := redis.Connect(ctx, settings.URL, settings.Prefix)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case domain.IndexBackendPostgres:
		if settings.URL == "" {
			return nil, domain.NewConfigError("index.url", "required for the %s backend", settings.Backend)
		}
		idx, err := postgres.Open(ctx, settings.URL, settings.Prefix)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, domain.NewConfigError("index.backend", "unknown backend %q", settings.Backend)
	}
}
