// Package sqlite provides a SQLite-backed implementation of driven.VectorIndex.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Embeddings are stored as little-endian
// float32 blobs and searched with an exact cosine scan, so results match the
// in-memory index entry for entry.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-kb/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Each Add runs in a single transaction, so a
// concurrent Search sees either none or all of a batch.
package sqlite
