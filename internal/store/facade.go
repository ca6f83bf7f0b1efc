package store

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// defaultSearchPoolSize bounds concurrent vector-search calls to
// protect the embedding client (spec.md §5: "Vector-search queries run
// through a bounded work pool (default 8)").
const defaultSearchPoolSize = 8

// Facade is the single storage client constructed at startup and
// passed explicitly into every handler (spec.md §9: "Avoid singletons;
// make them injectable for tests"). It owns the shared vector-search
// pool gate; the search and match tool handlers acquire it around their
// search calls. The table accessors do not acquire it themselves.
type Facade struct {
	DB           *DB
	WorkItems    *WorkItems
	Architecture *ArchitectureMemory
	Troubleshoot *TroubleshootMemory
	Execution    *ExecutionLog

	searchGate *semaphore.Weighted
}

// Open wires a Facade over a SQLite database at dbPath using embedder
// for every table's vector column. Pass a nil embedder to fall back to
// the deterministic HashEmbedder (tests, or no backend configured).
func Open(dbPath string, embedder Embedder) (*Facade, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	return NewFacade(db, embedder), nil
}

// NewFacade wires table accessors over an already-open DB.
func NewFacade(db *DB, embedder Embedder) *Facade {
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	return &Facade{
		DB:           db,
		WorkItems:    NewWorkItems(db, embedder),
		Architecture: NewArchitectureMemory(db, embedder),
		Troubleshoot: NewTroubleshootMemory(db, embedder),
		Execution:    NewExecutionLog(db),
		searchGate:   semaphore.NewWeighted(defaultSearchPoolSize),
	}
}

// AcquireSearchSlot blocks until a vector-search pool slot is free or
// ctx is cancelled, matching spec.md §5's bounded embedding work pool.
func (f *Facade) AcquireSearchSlot(ctx context.Context) error {
	return f.searchGate.Acquire(ctx, 1)
}

// ReleaseSearchSlot returns a slot acquired via AcquireSearchSlot.
func (f *Facade) ReleaseSearchSlot() {
	f.searchGate.Release(1)
}

// Close closes the underlying database connection.
func (f *Facade) Close() error {
	return f.DB.Close()
}
