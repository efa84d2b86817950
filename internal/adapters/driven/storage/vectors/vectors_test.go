package vectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func entry(id string, seq int64, v ...float32) Entry {
	return Entry{Chunk: domain.Chunk{ID: id}, Embedding: v, Seq: seq}
}

func TestRank(t *testing.T) {
	entries := []Entry{
		entry("far", 0, 0, 1),
		entry("tie-late", 3, 1, 0),
		entry("close", 1, 1, 0.1),
		entry("tie-early", 2, 1, 0),
	}

	hits := Rank(entries, []float32{1, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "tie-early", hits[0].Chunk.ID)
	assert.Equal(t, "tie-late", hits[1].Chunk.ID)
	assert.Equal(t, "close", hits[2].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	assert.Len(t, Rank(entries, []float32{1, 0}, 10), 4)
	assert.Empty(t, Rank(nil, []float32{1, 0}, 3))
	assert.Empty(t, Rank(entries, []float32{1, 0}, 0))
}

func TestCheckBatch(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a"}, {ID: "b"}}

	dim, err := CheckBatch(chunks, [][]float32{{1, 2}, {3, 4}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	tests := []struct {
		name       string
		embeddings [][]float32
		dim        int
	}{
		{"count mismatch", [][]float32{{1, 2}}, 0},
		{"ragged", [][]float32{{1, 2}, {3}}, 0},
		{"wrong index dimension", [][]float32{{1, 2}, {3, 4}}, 3},
		{"empty vector", [][]float32{{}, {1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckBatch(chunks, tt.embeddings, tt.dim)
			var violation *domain.ContractViolation
			assert.True(t, errors.As(err, &violation))
		})
	}
}

func TestCheckQuery(t *testing.T) {
	assert.NoError(t, CheckQuery([]float32{1, 2}, 2))
	assert.NoError(t, CheckQuery([]float32{1, 2}, 0))
	assert.Error(t, CheckQuery(nil, 2))
	assert.Error(t, CheckQuery([]float32{1}, 2))
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3e-7}
	assert.Equal(t, v, Decode(Encode(v)))
	assert.Nil(t, Encode(nil))
	assert.Nil(t, Decode(nil))
}
