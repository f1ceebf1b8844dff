package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Aman-CERP/patrology/internal/errors"
)

// NormalizeName collapses internal whitespace and trims the ends.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// InsertOrGetAuthor returns the id of the author named a.Name, creating the
// row if it does not exist. An existing row is never modified.
func (s *Store) InsertOrGetAuthor(ctx context.Context, a Author) (int64, error) {
	name := NormalizeName(a.Name)
	if name == "" {
		return 0, errors.New(errors.ErrCodeInvalidDocument, "author name is required", nil)
	}

	var id int64
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO authors (name, dates, description, is_saint, is_doctor)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name) DO NOTHING`,
			name, a.Dates, a.Description, a.IsSaint, a.IsDoctor); err != nil {
			return Classify("failed to insert author", err)
		}
		if err := conn.QueryRowContext(ctx,
			`SELECT id FROM authors WHERE name = ?`, name).Scan(&id); err != nil {
			return Classify("failed to resolve author id", err)
		}
		return nil
	})
	return id, err
}

// InsertOrGetWork returns the id of the work with w.URL, creating it under
// authorID if absent. A work already stored under that URL keeps its owner.
func (s *Store) InsertOrGetWork(ctx context.Context, authorID int64, w Work) (int64, error) {
	url := strings.TrimSpace(w.URL)
	if url == "" {
		return 0, errors.New(errors.ErrCodeInvalidDocument, "work url is required", nil)
	}

	var century any
	if w.Century != 0 {
		century = w.Century
	}

	var id int64
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO works (author_id, title, url, work_type, century)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(url) DO NOTHING`,
			authorID, strings.TrimSpace(w.Title), url, w.WorkType, century); err != nil {
			return Classify("failed to insert work", err)
		}
		if err := conn.QueryRowContext(ctx,
			`SELECT id FROM works WHERE url = ?`, url).Scan(&id); err != nil {
			return Classify("failed to resolve work id", err)
		}
		return nil
	})
	return id, err
}

// InsertChapter inserts a chapter row inside tx. If the work already has a
// chapter with the same number, the existing id is returned with created=false.
func InsertChapter(ctx context.Context, tx *sql.Tx, workID int64, ch Chapter) (int64, bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO chapters (work_id, chapter_number, chapter_title, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(work_id, chapter_number) DO NOTHING`,
		workID, ch.Number, ch.Title, ch.Content)
	if err != nil {
		return 0, false, Classify("failed to insert chapter", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, Classify("failed to insert chapter", err)
	}
	if n == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, Classify("failed to read chapter id", err)
		}
		return id, true, nil
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM chapters WHERE work_id = ? AND chapter_number = ?`,
		workID, ch.Number).Scan(&id); err != nil {
		return 0, false, Classify("failed to resolve chapter id", err)
	}
	return id, false, nil
}

// InsertPhrases writes phrase entries for chapterID inside tx.
func InsertPhrases(ctx context.Context, tx *sql.Tx, chapterID int64, entries []PhraseEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO phrases (phrase, chapter_id, position, length) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Classify("failed to prepare phrase statement", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Phrase, chapterID, e.Position, e.Length); err != nil {
			return Classify(fmt.Sprintf("failed to insert phrase at position %d", e.Position), err)
		}
	}
	return nil
}

// InsertTrigrams writes trigram entries for chapterID inside tx.
func InsertTrigrams(ctx context.Context, tx *sql.Tx, chapterID int64, entries []TrigramEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trigrams (trigram, chapter_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return Classify("failed to prepare trigram statement", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Trigram, chapterID, e.Position); err != nil {
			return Classify(fmt.Sprintf("failed to insert trigram at position %d", e.Position), err)
		}
	}
	return nil
}

// DeleteChapter removes a chapter inside tx; its phrases and trigrams go
// with it through ON DELETE CASCADE. Reports whether a row was removed.
func DeleteChapter(ctx context.Context, tx *sql.Tx, chapterID int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, chapterID)
	if err != nil {
		return false, Classify("failed to delete chapter", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, Classify("failed to delete chapter", err)
	}
	return n > 0, nil
}
