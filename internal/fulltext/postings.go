// Package fulltext maintains the token-to-chapter postings that back
// boolean search and proximity candidate retrieval.
package fulltext

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/errors"
)

// Backend names a postings implementation.
type Backend string

const (
	// BackendSQLite keeps postings in an FTS5 table inside the corpus database.
	// Writes join the chapter transaction.
	BackendSQLite Backend = "sqlite"

	// BackendBleve keeps postings in a bleve index next to the database.
	// Writes are not transactional; callers compensate on rollback.
	BackendBleve Backend = "bleve"
)

// Postings associates chapter content with chapter ids and answers boolean
// queries with matching ids in ascending id order.
type Postings interface {
	// Add registers content under chapterID, replacing any previous posting.
	// Transactional backends write through tx; others ignore it.
	Add(ctx context.Context, tx *sql.Tx, chapterID int64, content string) error

	// Remove drops the posting for chapterID. Removing an absent id is not an error.
	Remove(ctx context.Context, tx *sql.Tx, chapterID int64) error

	// Match evaluates a boolean expression (see ParseExpr).
	Match(ctx context.Context, expr string, limit int) ([]int64, error)

	// MatchAny returns chapters containing at least one of words.
	MatchAny(ctx context.Context, words []string, limit int) ([]int64, error)

	// Transactional reports whether Add and Remove commit with tx.
	Transactional() bool

	// Count returns the number of chapters posted.
	Count(ctx context.Context) (int, error)

	// Reset drops every posting.
	Reset(ctx context.Context) error

	Close() error
}

// New opens the postings backend. dir is the bleve index directory; an
// in-memory store always gets an in-memory bleve index.
func New(ctx context.Context, backend Backend, dir string, store *corpus.Store) (Postings, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLite(ctx, store)
	case BackendBleve:
		path := dir
		if store.Path() == "" {
			path = ""
		} else if path == "" {
			path = filepath.Join(filepath.Dir(store.Path()), "fulltext.bleve")
		}
		return NewBleve(path)
	default:
		return nil, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown full-text backend: %s (valid options: sqlite, bleve)", backend), nil)
	}
}
