package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Search is an exact brute-force scan. Entries live as long as the process.
type VectorIndex struct {
	mu      sync.RWMutex
	entries []vectors.Entry
	dim     int
	nextSeq int64
}

// NewVectorIndex creates an empty in-memory vector index. The dimension is
// fixed by the first batch added.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Add appends entries for chunks. A mismatched batch is rejected whole.
func (v *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dim, err := vectors.CheckBatch(chunks, embeddings, v.dim)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	for i := range chunks {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		v.entries = append(v.entries, vectors.Entry{Chunk: chunks[i], Embedding: vec, Seq: v.nextSeq})
		v.nextSeq++
	}
	v.dim = dim
	return nil
}

// Search returns the k entries most similar to query.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if err := vectors.CheckQuery(query, v.dim); err != nil {
		return nil, err
	}
	return vectors.Rank(v.entries, query, k), nil
}

// Reset removes every entry and forgets the dimension.
func (v *VectorIndex) Reset(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	v.dim = 0
	return nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
