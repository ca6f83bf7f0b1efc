// Package store is the hybrid document store + per-table vector index
// (spec.md §4.1 / C1): typed SQLite tables with a JSON-encoded vector
// column, a brute-force cosine-similarity scan standing in for the ANN
// index, and trigger-maintained FTS5 virtual tables. Keyword search does
// not query the FTS5 tables; it is a case-insensitive substring scan
// over title and description in Go. Continues the
// numbered-migration DB wrapper from the teacher's internal/db/sqlite.go
// and the VectorStore/cosineSimilarity shape from agents/rag/store.go.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection and owns schema migration.
type DB struct {
	*sql.DB
	path string
}

// OpenDB opens or creates a SQLite database at the given path,
// enabling WAL mode and foreign keys, then runs pending migrations.
func OpenDB(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	d := &DB{DB: sqlDB, path: dbPath}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return d, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.DB.Close()
}

// WithRetry runs op, retrying with exponential backoff (1s, 2s, 4s;
// up to 3 retries) when op reports a storage-unavailable condition via
// isRetryable. Non-retryable errors return immediately. Honors ctx
// cancellation between attempts (spec.md §4.1, §5).
func WithRetry(ctx context.Context, isRetryable func(error) bool, op func() error) error {
	delays := [...]time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error
	for attempt := 0; attempt <= len(delays); attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == len(delays) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}
	return lastErr
}
