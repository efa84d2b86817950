package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex stores entries in a pgvector table and searches with the
// cosine distance operator. Ties on distance fall back to insertion order.
type VectorIndex struct {
	db    *DB
	table string
}

// Open connects to url, initialises the schema and returns the index.
func Open(ctx context.Context, url, prefix string) (*VectorIndex, error) {
	table, err := TableName(prefix)
	if err != nil {
		return nil, err
	}

	db, err := Connect(ctx, DefaultConfig(url))
	if err != nil {
		return nil, err
	}

	if err := db.InitSchema(ctx, table); err != nil {
		db.Close()
		return nil, err
	}

	return &VectorIndex{db: db, table: table}, nil
}

// Add inserts the batch in one transaction. The table is locked against
// other writers so the dimension check and insert cannot interleave.
func (v *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if _, err := vectors.CheckBatch(chunks, embeddings, 0); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	return v.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "LOCK TABLE "+v.table+" IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("locking %s: %w", v.table, err)
		}

		dim, err := v.dimension(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := vectors.CheckBatch(chunks, embeddings, dim); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO `+v.table+`
				(chunk_id, document_id, source, position, content, unit, overlap, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i := range chunks {
			c := &chunks[i]
			_, err := stmt.ExecContext(ctx,
				c.ID, c.DocumentID, c.Source, c.Position, c.Content, string(c.Unit), c.Overlap,
				pgvector.NewVector(embeddings[i]),
			)
			if err != nil {
				return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Search returns the k nearest entries by cosine distance.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	dim, err := v.dimension(ctx, v.db)
	if err != nil {
		return nil, err
	}
	if dim == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	if err := vectors.CheckQuery(query, dim); err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, source, position, content, unit, overlap,
		       1 - (embedding <=> $1) AS score
		FROM `+v.table+`
		ORDER BY embedding <=> $1, seq
		LIMIT $2
	`, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", v.table, err)
	}
	defer rows.Close()

	hits := []domain.ScoredChunk{}
	for rows.Next() {
		var (
			hit   domain.ScoredChunk
			unit  string
			score float64
		)
		c := &hit.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Source, &c.Position, &c.Content, &unit, &c.Overlap, &score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		c.Unit = domain.SplitUnit(unit)
		// pgvector reports NaN distance for zero vectors.
		if !math.IsNaN(score) {
			hit.Score = score
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// Reset empties the table and restarts the insertion sequence.
func (v *VectorIndex) Reset(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, "TRUNCATE "+v.table+" RESTART IDENTITY"); err != nil {
		return fmt.Errorf("truncating %s: %w", v.table, err)
	}
	return nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+v.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", v.table, err)
	}
	return n, nil
}

// Close closes the connection pool.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dimension returns the stored vector size, or 0 for an empty table.
func (v *VectorIndex) dimension(ctx context.Context, q queryer) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, "SELECT vector_dims(embedding) FROM "+v.table+" ORDER BY seq LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index dimension: %w", err)
	}
	return dim, nil
}
