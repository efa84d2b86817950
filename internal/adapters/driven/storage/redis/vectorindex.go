// Package redis provides a Redis-backed implementation of driven.VectorIndex.
//
// Each entry is a hash under <prefix>:entry:<seq>. A sorted set scored by
// seq lists live entries in insertion order, and <prefix>:dim holds the
// index dimension. Similarity is computed client side with an exact scan,
// so the backend needs no search module and works against plain Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "sercha_kb"

// maxTxRetries bounds optimistic retries when a concurrent writer touches
// the dimension key.
const maxTxRetries = 5

// Hash fields
const (
	fieldChunkID    = "chunk_id"
	fieldDocumentID = "document_id"
	fieldSource     = "source"
	fieldPosition   = "position"
	fieldContent    = "content"
	fieldUnit       = "unit"
	fieldOverlap    = "overlap"
	fieldVector     = "vector"
)

// VectorIndex implements driven.VectorIndex using Redis.
type VectorIndex struct {
	client *redis.Client
	prefix string
	owned  bool
}

// Connect parses a redis:// URL, pings the server and returns an index
// that closes the client on Close.
func Connect(ctx context.Context, url, prefix string) (*VectorIndex, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, domain.NewConfigError("index.url", "invalid redis url: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis: %v", domain.ErrVectorIndexUnavailable, err)
	}

	idx := NewVectorIndex(client, prefix)
	idx.owned = true
	return idx, nil
}

// NewVectorIndex creates an index on an existing client. The caller keeps
// ownership of the client.
func NewVectorIndex(client *redis.Client, prefix string) *VectorIndex {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &VectorIndex{client: client, prefix: prefix}
}

func (v *VectorIndex) entriesKey() string { return v.prefix + ":entries" }
func (v *VectorIndex) seqKey() string     { return v.prefix + ":seq" }
func (v *VectorIndex) dimKey() string     { return v.prefix + ":dim" }

func (v *VectorIndex) entryKey(seq string) string {
	return v.prefix + ":entry:" + seq
}

// Add writes the batch in one MULTI/EXEC transaction.
func (v *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if _, err := vectors.CheckBatch(chunks, embeddings, 0); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	last, err := v.client.IncrBy(ctx, v.seqKey(), int64(len(chunks))).Result()
	if err != nil {
		return v.unavailable(err)
	}
	first := last - int64(len(chunks)) + 1

	write := func(tx *redis.Tx) error {
		dim, err := tx.Get(ctx, v.dimKey()).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if _, err := vectors.CheckBatch(chunks, embeddings, dim); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if dim == 0 {
				pipe.Set(ctx, v.dimKey(), len(embeddings[0]), 0)
			}
			for i := range chunks {
				c := &chunks[i]
				seq := first + int64(i)
				member := strconv.FormatInt(seq, 10)
				pipe.HSet(ctx, v.entryKey(member),
					fieldChunkID, c.ID,
					fieldDocumentID, c.DocumentID,
					fieldSource, c.Source,
					fieldPosition, c.Position,
					fieldContent, c.Content,
					fieldUnit, string(c.Unit),
					fieldOverlap, c.Overlap,
					fieldVector, vectors.Encode(embeddings[i]),
				)
				pipe.ZAdd(ctx, v.entriesKey(), redis.Z{Score: float64(seq), Member: member})
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = v.client.Watch(ctx, write, v.dimKey())
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	var violation *domain.ContractViolation
	if errors.As(err, &violation) {
		return err
	}
	if err != nil {
		return v.unavailable(err)
	}
	return nil
}

// Search loads every entry in insertion order and ranks them client side.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	members, err := v.client.ZRange(ctx, v.entriesKey(), 0, -1).Result()
	if err != nil {
		return nil, v.unavailable(err)
	}
	if len(members) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	pipe := v.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HGetAll(ctx, v.entryKey(m))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, v.unavailable(err)
	}

	entries := make([]vectors.Entry, 0, len(members))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Removed by a concurrent Reset.
			continue
		}
		seq, _ := strconv.ParseInt(members[i], 10, 64)
		entries = append(entries, decodeEntry(seq, fields))
	}
	if len(entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	if err := vectors.CheckQuery(query, len(entries[0].Embedding)); err != nil {
		return nil, err
	}
	return vectors.Rank(entries, query, k), nil
}

// Reset deletes every key owned by this index.
func (v *VectorIndex) Reset(ctx context.Context) error {
	members, err := v.client.ZRange(ctx, v.entriesKey(), 0, -1).Result()
	if err != nil {
		return v.unavailable(err)
	}

	keys := make([]string, 0, len(members)+3)
	for _, m := range members {
		keys = append(keys, v.entryKey(m))
	}
	keys = append(keys, v.entriesKey(), v.seqKey(), v.dimKey())

	if err := v.client.Del(ctx, keys...).Err(); err != nil {
		return v.unavailable(err)
	}
	return nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	n, err := v.client.ZCard(ctx, v.entriesKey()).Result()
	if err != nil {
		return 0, v.unavailable(err)
	}
	return int(n), nil
}

// Close closes the client if Connect created it.
func (v *VectorIndex) Close() error {
	if v.owned {
		return v.client.Close()
	}
	return nil
}

func (v *VectorIndex) unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: redis: %v", domain.ErrVectorIndexUnavailable, err)
}

func decodeEntry(seq int64, fields map[string]string) vectors.Entry {
	position, _ := strconv.Atoi(fields[fieldPosition])
	overlap, _ := strconv.Atoi(fields[fieldOverlap])
	return vectors.Entry{
		Chunk: domain.Chunk{
			ID:         fields[fieldChunkID],
			DocumentID: fields[fieldDocumentID],
			Source:     fields[fieldSource],
			Position:   position,
			Content:    fields[fieldContent],
			Unit:       domain.SplitUnit(fields[fieldUnit]),
			Overlap:    overlap,
		},
		Embedding: vectors.Decode([]byte(fields[fieldVector])),
		Seq:       seq,
	}
}
