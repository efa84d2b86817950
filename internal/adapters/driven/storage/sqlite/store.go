package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "index.db"

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store is a durable vector index backed by a single SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-kb/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-kb", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serialises writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations. Each migration records its own
// version in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vector_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Add inserts one row per chunk in a single transaction.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	dim, err := dimension(ctx, tx)
	if err != nil {
		return err
	}
	if _, err = vectors.CheckBatch(chunks, embeddings, dim); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_entries
			(chunk_id, document_id, source, position, content, unit, overlap, dimensions, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		_, err = stmt.ExecContext(ctx,
			c.ID, c.DocumentID, c.Source, c.Position, c.Content, string(c.Unit), c.Overlap,
			len(embeddings[i]), vectors.Encode(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Search scans every stored vector and returns the k most similar.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, chunk_id, document_id, source, position, content, unit, overlap, embedding
		FROM vector_entries
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []vectors.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	if len(entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if err := vectors.CheckQuery(query, len(entries[0].Embedding)); err != nil {
		return nil, err
	}
	return vectors.Rank(entries, query, k), nil
}

// Reset deletes every entry. The sequence restarts so insertion order stays
// meaningful for the next run.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vector_entries"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("deleting entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'vector_entries'"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("resetting sequence: %w", err)
	}
	return tx.Commit()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// dimension returns the stored vector size, or 0 for an empty index.
func dimension(ctx context.Context, tx *sql.Tx) (int, error) {
	var dim int
	err := tx.QueryRowContext(ctx, "SELECT dimensions FROM vector_entries ORDER BY seq LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index dimension: %w", err)
	}
	return dim, nil
}

func scanEntry(rows *sql.Rows) (vectors.Entry, error) {
	var (
		entry vectors.Entry
		unit  string
		blob  []byte
	)
	c := &entry.Chunk
	err := rows.Scan(&entry.Seq, &c.ID, &c.DocumentID, &c.Source, &c.Position, &c.Content, &unit, &c.Overlap, &blob)
	if err != nil {
		return entry, fmt.Errorf("scanning entry: %w", err)
	}
	c.Unit = domain.SplitUnit(unit)
	entry.Embedding = vectors.Decode(blob)
	return entry, nil
}
