// Package vectors holds the similarity, ranking and encoding helpers shared
// by the vector index backends.
package vectors

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Entry is a stored chunk with its embedding and insertion sequence.
type Entry struct {
	Chunk     domain.Chunk
	Embedding []float32
	Seq       int64
}

// Cosine returns the cosine similarity of a and b, or 0 when either has
// zero magnitude. The vectors must have the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores entries against query and returns the best k, highest
// similarity first with ties broken by ascending Seq.
func Rank(entries []Entry, query []float32, k int) []domain.ScoredChunk {
	if k <= 0 || len(entries) == 0 {
		return []domain.ScoredChunk{}
	}

	type scored struct {
		entry *Entry
		score float64
	}
	all := make([]scored, len(entries))
	for i := range entries {
		all[i] = scored{entry: &entries[i], score: Cosine(entries[i].Embedding, query)}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].entry.Seq < all[j].entry.Seq
	})

	k = min(k, len(all))
	hits := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.ScoredChunk{Chunk: all[i].entry.Chunk, Score: all[i].score}
	}
	return hits
}

// CheckBatch validates a batch for an index of dimension dim, where 0 means
// the index is still empty. It returns the dimension the batch establishes.
func CheckBatch(chunks []domain.Chunk, embeddings [][]float32, dim int) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, domain.NewContractViolation("%d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return 0, domain.NewContractViolation("embedding %d is empty", i)
		}
		if dim == 0 {
			dim = len(e)
		}
		if len(e) != dim {
			return 0, domain.NewContractViolation("embedding %d has dimension %d, index has %d", i, len(e), dim)
		}
	}
	return dim, nil
}

// CheckQuery validates a query vector against the index dimension.
func CheckQuery(query []float32, dim int) error {
	if len(query) == 0 {
		return domain.NewContractViolation("query embedding is empty")
	}
	if dim != 0 && len(query) != dim {
		return domain.NewContractViolation("query has dimension %d, index has %d", len(query), dim)
	}
	return nil
}

// Encode packs a vector as little-endian float32 bytes.
func Encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode unpacks bytes written by Encode.
func Decode(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
