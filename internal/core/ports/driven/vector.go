package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// VectorIndex stores chunks with their embeddings and answers
// nearest-neighbour queries by cosine similarity.
//
// Implementations must be safe for concurrent use: a single Add is applied
// atomically and Search never observes a partially written batch.
type VectorIndex interface {
	// Add appends one entry per chunk. chunks and embeddings must have the
	// same length and order, and every embedding the index dimension;
	// otherwise Add returns *domain.ContractViolation and writes nothing.
	Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error

	// Search returns up to k entries ordered by descending similarity, ties
	// broken by insertion order. k is clamped to the index size. An empty
	// index yields an empty result and no error.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Reset removes every entry.
	Reset(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
