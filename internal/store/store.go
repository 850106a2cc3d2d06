// Package store persists an index in SQLite. It is the sink the pipeline
// writes resolved symbols and relationships into, and the place the
// IndexData snapshot is loaded from at the start of an incremental run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DeusData/codebase-index/internal/types"
)

// ErrNotFound is returned by lookups of a single row that does not exist.
var ErrNotFound = errors.New("store: not found")

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding one index.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// Open opens or creates the database at dbPath, creating its directory.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newStore(db, dbPath)
}

// OpenMemory opens an in-memory database (for testing). The pool is pinned
// to one connection because every new connection would see an empty database.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newStore(db, ":memory:")
}

func newStore(db *sql.DB, dbPath string) (*Store, error) {
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; all store methods called
// on txStore use the transaction. The receiver's q field is never mutated, so
// concurrent read-only callers using s are unaffected.
func (s *Store) WithTransaction(ctx context.Context, fn func(txStore *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, or ":memory:".
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		hash TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		indexed_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		file_path TEXT NOT NULL DEFAULT '',
		start_line INTEGER NOT NULL DEFAULT 0,
		start_col INTEGER NOT NULL DEFAULT 0,
		end_line INTEGER NOT NULL DEFAULT 0,
		end_col INTEGER NOT NULL DEFAULT 0,
		signature TEXT NOT NULL DEFAULT '',
		doc TEXT NOT NULL DEFAULT '',
		visibility INTEGER NOT NULL DEFAULT 0,
		module_path TEXT NOT NULL DEFAULT '',
		scope_kind TEXT NOT NULL DEFAULT '',
		scope_parent TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

	CREATE TABLE IF NOT EXISTS relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		to_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_rels_from ON relationships(from_id, kind);
	CREATE INDEX IF NOT EXISTS idx_rels_to ON relationships(to_id, kind);

	CREATE TABLE IF NOT EXISTS imports (
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		path TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		alias TEXT NOT NULL DEFAULT '',
		is_glob INTEGER NOT NULL DEFAULT 0,
		is_type_only INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (file_id, seq)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// marshalMetadata serializes relationship metadata; nil becomes "".
func marshalMetadata(m *types.RelationshipMetadata) string {
	if m == nil {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// unmarshalMetadata deserializes relationship metadata; "" becomes nil.
func unmarshalMetadata(data string) *types.RelationshipMetadata {
	if data == "" {
		return nil
	}
	var m types.RelationshipMetadata
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil
	}
	return &m
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
