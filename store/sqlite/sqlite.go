/*
Package sqlite provides a SQLite-backed ledger.BlobStore.

PURPOSE:
  Persists the POS ledger blobs (plans, installment audit log, sales) in a
  single key/value table. The documents stay JSON; SQLite supplies
  durability and atomic multi-key commits.

KEY TABLES:
  blobs: key TEXT PRIMARY KEY, value TEXT, updated_at TEXT

CONCURRENCY:
  One open connection, and a sync.RWMutex around it. WithTx holds the write
  lock for the whole transaction, so record-payment read-modify-write cycles
  serialize and never interleave.

WAL MODE:
  Opened with WAL and a busy timeout so a second process (the POS UI sync,
  for instance) reading the file does not fail writers immediately.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  repo := ledger.NewBlobRepository(store)

SEE ALSO:
  - ledger/store.go: BlobStore interface
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pos-ledger/ledger"
)

// Store implements ledger.BlobStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BLOB STORE
// =============================================================================

// querier is the subset of *sql.DB and *sql.Tx used here.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(ctx, s.db, key)
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(ctx, s.db, key, value)
}

func get(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func set(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a SQL transaction. keys is not needed: the
// transaction covers the whole table.
func (s *Store) WithTx(ctx context.Context, _ []string, fn func(ledger.Blob) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore routes every read and write through the open transaction. Going
// back to s.db here would block on the single connection.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Get(ctx context.Context, key string) (string, bool, error) {
	return get(ctx, ts.tx, key)
}

func (ts *txStore) Set(ctx context.Context, key, value string) error {
	return set(ctx, ts.tx, key, value)
}

var _ ledger.BlobStore = (*Store)(nil)
