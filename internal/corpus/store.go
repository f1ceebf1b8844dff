package corpus

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Aman-CERP/patrology/internal/errors"
)

// Store is the authoritative corpus database: authors, works, chapters and
// the phrase and trigram indexes derived from chapter content.
//
// Every operation acquires a scoped handle (WithConn or WithTx) for its own
// duration. Callers must not acquire a second handle while holding one: an
// in-memory store has exactly one connection.
type Store struct {
	db   *sql.DB
	path string
}

type options struct {
	maxOpenConns  int
	busyTimeoutMS int
	cacheSizeMB   int
}

// Option configures Open.
type Option func(*options)

// WithMaxOpenConns sets the connection pool size. Ignored for in-memory stores.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithBusyTimeout sets how long a connection waits on a locked database.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		if ms > 0 {
			o.busyTimeoutMS = ms
		}
	}
}

// WithCacheSizeMB sets the per-connection page cache size.
func WithCacheSizeMB(mb int) Option {
	return func(o *options) {
		if mb > 0 {
			o.cacheSizeMB = mb
		}
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	dates TEXT,
	description TEXT,
	is_saint BOOLEAN DEFAULT 0,
	is_doctor BOOLEAN DEFAULT 0
);

CREATE TABLE IF NOT EXISTS works (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL REFERENCES authors(id),
	title TEXT NOT NULL,
	url TEXT UNIQUE NOT NULL,
	work_type TEXT,
	century INTEGER
);

CREATE TABLE IF NOT EXISTS chapters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	work_id INTEGER NOT NULL REFERENCES works(id) ON DELETE CASCADE,
	chapter_number INTEGER NOT NULL,
	chapter_title TEXT,
	content TEXT NOT NULL,
	UNIQUE(work_id, chapter_number)
);

CREATE TABLE IF NOT EXISTS phrases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	phrase TEXT NOT NULL,
	chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	length INTEGER NOT NULL CHECK (length BETWEEN 2 AND 10)
);

CREATE TABLE IF NOT EXISTS trigrams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trigram TEXT NOT NULL,
	chapter_id INTEGER NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trigrams_trigram ON trigrams(trigram);
CREATE INDEX IF NOT EXISTS idx_trigrams_chapter ON trigrams(chapter_id);
CREATE INDEX IF NOT EXISTS idx_phrases_phrase ON phrases(phrase);
CREATE INDEX IF NOT EXISTS idx_phrases_chapter ON phrases(chapter_id);
CREATE INDEX IF NOT EXISTS idx_phrases_length ON phrases(length);
CREATE INDEX IF NOT EXISTS idx_works_author ON works(author_id);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// validateIntegrity checks an existing database file before opening it.
// Returns nil if the file is absent or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open opens (or creates) the corpus database at path. An empty path opens
// an in-memory store, which is limited to a single connection.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{maxOpenConns: 4, busyTimeoutMS: 5000, cacheSizeMB: 64}
	for _, opt := range opts {
		opt(&o)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	params := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", o.busyTimeoutMS),
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=cache_size(%d)", -o.cacheSizeMB*1024),
		"_pragma=temp_store(MEMORY)",
		"_txlock=immediate",
	}

	var dsn string
	if path == "" {
		dsn = ":memory:?" + strings.Join(params, "&")
		o.maxOpenConns = 1
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(errors.ErrCodeStoreUnavailable,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("corpus_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, errors.New(errors.ErrCodeCorruptIndex,
					fmt.Sprintf("corpus database corrupted at %s and cannot be removed", path), removeErr).
					WithDetail("validation_error", validErr.Error())
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("corpus_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		params = append(params,
			"_pragma=journal_mode(WAL)",
			"_pragma=synchronous(NORMAL)")
		dsn = path + "?" + strings.Join(params, "&")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxOpenConns)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "failed to initialize schema", err)
	}

	slog.Debug("corpus_store_opened",
		slog.String("path", path),
		slog.Int("max_open_conns", o.maxOpenConns))

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the pool for collaborators that keep their own tables in the
// corpus database (the FTS5 postings and query telemetry).
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithConn runs fn on a dedicated connection that is released on return.
func (s *Store) WithConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return Classify("failed to acquire connection", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

// WithTx runs fn inside a transaction. The transaction commits only if fn
// returns nil and is rolled back on every other exit path.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return Classify("failed to commit transaction", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the pool.
func (s *Store) Close() error {
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// Classify wraps a database error as a StoreError, using the busy code for
// lock contention so callers can retry. Already-classified errors pass through.
func Classify(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}

	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errors.New(errors.ErrCodeStoreBusy, message, err)
		}
	}
	if stderrors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return errors.New(errors.ErrCodeStoreClosed, message, err)
	}
	return errors.StoreError(message, err)
}
