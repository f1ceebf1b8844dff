package fulltext

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/errors"
)

// SQLitePostings implements Postings with an FTS5 table whose rowid is the
// chapter id.
type SQLitePostings struct {
	store *corpus.Store
}

var _ Postings = (*SQLitePostings)(nil)

// NewSQLite creates the FTS5 table in the corpus database if needed.
func NewSQLite(ctx context.Context, store *corpus.Store) (*SQLitePostings, error) {
	err := store.WithConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
				content,
				tokenize='unicode61'
			)`)
		return corpus.Classify("failed to create full-text table", err)
	})
	if err != nil {
		return nil, err
	}
	return &SQLitePostings{store: store}, nil
}

// Add implements Postings.
func (s *SQLitePostings) Add(ctx context.Context, tx *sql.Tx, chapterID int64, content string) error {
	// FTS5 has no upsert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_fts WHERE rowid = ?`, chapterID); err != nil {
		return corpus.Classify(fmt.Sprintf("failed to replace posting for chapter %d", chapterID), err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO content_fts (rowid, content) VALUES (?, ?)`, chapterID, content); err != nil {
		return corpus.Classify(fmt.Sprintf("failed to post chapter %d", chapterID), err)
	}
	return nil
}

// Remove implements Postings.
func (s *SQLitePostings) Remove(ctx context.Context, tx *sql.Tx, chapterID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_fts WHERE rowid = ?`, chapterID); err != nil {
		return corpus.Classify(fmt.Sprintf("failed to remove posting for chapter %d", chapterID), err)
	}
	return nil
}

// Match implements Postings.
func (s *SQLitePostings) Match(ctx context.Context, expr string, limit int) ([]int64, error) {
	e, err := ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	return s.match(ctx, e, limit)
}

// MatchAny implements Postings.
func (s *SQLitePostings) MatchAny(ctx context.Context, words []string, limit int) ([]int64, error) {
	e := AnyOf(words)
	if e == nil {
		return nil, nil
	}
	return s.match(ctx, e, limit)
}

func (s *SQLitePostings) match(ctx context.Context, e *Expr, limit int) ([]int64, error) {
	var ids []int64
	err := s.store.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT rowid FROM content_fts
			WHERE content_fts MATCH ?
			ORDER BY rowid
			LIMIT ?`, e.String(), limit)
		if err != nil {
			return classifyMatch(e, err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return corpus.Classify("failed to scan posting", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return classifyMatch(e, err)
		}
		return nil
	})
	return ids, err
}

// classifyMatch reports FTS5 grammar rejections as query errors.
func classifyMatch(e *Expr, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "fts5:") || strings.Contains(msg, "syntax error") {
		return errors.QueryError("full-text engine rejected the expression", err).
			WithDetail("expression", e.Source())
	}
	return corpus.Classify("full-text match failed", err)
}

// Transactional implements Postings.
func (s *SQLitePostings) Transactional() bool {
	return true
}

// Count implements Postings.
func (s *SQLitePostings) Count(ctx context.Context) (int, error) {
	var n int
	err := s.store.WithConn(ctx, func(conn *sql.Conn) error {
		return corpus.Classify("failed to count postings",
			conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_fts`).Scan(&n))
	})
	return n, err
}

// Reset implements Postings.
func (s *SQLitePostings) Reset(ctx context.Context) error {
	return s.store.WithConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `DELETE FROM content_fts`)
		return corpus.Classify("failed to reset postings", err)
	})
}

// Close is a no-op; the table lives in the corpus store.
func (s *SQLitePostings) Close() error {
	return nil
}
