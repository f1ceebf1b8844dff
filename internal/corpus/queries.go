package corpus

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Aman-CERP/patrology/internal/errors"
)

const chapterColumns = `
	c.id, c.work_id, c.chapter_number, COALESCE(c.chapter_title, ''),
	w.title, w.url, a.name, c.content`

const chapterJoins = `
	JOIN works w ON c.work_id = w.id
	JOIN authors a ON w.author_id = a.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanChapter(row scanner, extra ...any) (ChapterRecord, error) {
	var r ChapterRecord
	dest := []any{
		&r.ChapterID, &r.WorkID, &r.ChapterNumber, &r.ChapterTitle,
		&r.WorkTitle, &r.URL, &r.Author, &r.Content,
	}
	err := row.Scan(append(dest, extra...)...)
	return r, err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// LookupPhrase returns phrase-index rows equal to phrase, joined to their
// chapters, in index order and capped at limit.
func (s *Store) LookupPhrase(ctx context.Context, phrase string, limit int) ([]PhraseMatch, error) {
	var matches []PhraseMatch
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT`+chapterColumns+`, p.phrase, p.position
			FROM phrases p
			JOIN chapters c ON p.chapter_id = c.id`+chapterJoins+`
			WHERE p.phrase = ?
			ORDER BY p.id
			LIMIT ?`, phrase, limit)
		if err != nil {
			return Classify("failed to look up phrase", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var m PhraseMatch
			rec, err := scanChapter(rows, &m.Phrase, &m.Position)
			if err != nil {
				return Classify("failed to scan phrase match", err)
			}
			m.ChapterRecord = rec
			matches = append(matches, m)
		}
		return Classify("failed to read phrase matches", rows.Err())
	})
	return matches, err
}

// PhraseCandidates returns up to limit distinct (phrase, chapter) pairs with
// length in [minLen, maxLen], in index order of first occurrence. A non-nil chapterIDs restricts the scan to
// those chapters; an empty non-nil slice yields no candidates.
func (s *Store) PhraseCandidates(ctx context.Context, minLen, maxLen int, chapterIDs []int64, limit int) ([]PhraseCandidate, error) {
	if chapterIDs != nil && len(chapterIDs) == 0 {
		return nil, nil
	}

	query := `SELECT phrase, chapter_id FROM phrases WHERE length BETWEEN ? AND ?`
	args := []any{minLen, maxLen}
	if chapterIDs != nil {
		query += ` AND chapter_id IN (` + placeholders(len(chapterIDs)) + `)`
		for _, id := range chapterIDs {
			args = append(args, id)
		}
	}
	query += ` GROUP BY phrase, chapter_id ORDER BY MIN(id) LIMIT ?`
	args = append(args, limit)

	var out []PhraseCandidate
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return Classify("failed to fetch phrase candidates", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var c PhraseCandidate
			if err := rows.Scan(&c.Phrase, &c.ChapterID); err != nil {
				return Classify("failed to scan phrase candidate", err)
			}
			out = append(out, c)
		}
		return Classify("failed to read phrase candidates", rows.Err())
	})
	return out, err
}

// TrigramOverlap ranks chapters by how many of the given distinct trigrams
// they contain. Chapters sharing fewer than minShared are dropped; at most
// limit chapter ids are returned, best overlap first.
func (s *Store) TrigramOverlap(ctx context.Context, trigrams []string, minShared, limit int) ([]int64, error) {
	if len(trigrams) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(trigrams)+2)
	for _, t := range trigrams {
		args = append(args, t)
	}
	args = append(args, minShared, limit)

	var ids []int64
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT chapter_id, COUNT(DISTINCT trigram) AS shared
			FROM trigrams
			WHERE trigram IN (`+placeholders(len(trigrams))+`)
			GROUP BY chapter_id
			HAVING shared >= ?
			ORDER BY shared DESC, chapter_id
			LIMIT ?`, args...)
		if err != nil {
			return Classify("failed to rank trigram overlap", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var id int64
			var shared int
			if err := rows.Scan(&id, &shared); err != nil {
				return Classify("failed to scan trigram overlap", err)
			}
			ids = append(ids, id)
		}
		return Classify("failed to read trigram overlap", rows.Err())
	})
	return ids, err
}

// Chapters loads the given chapters with metadata, keyed by id. Unknown ids
// are absent from the map.
func (s *Store) Chapters(ctx context.Context, ids []int64) (map[int64]ChapterRecord, error) {
	out := make(map[int64]ChapterRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT`+chapterColumns+`
			FROM chapters c`+chapterJoins+`
			WHERE c.id IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return Classify("failed to load chapters", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			rec, err := scanChapter(rows)
			if err != nil {
				return Classify("failed to scan chapter", err)
			}
			out[rec.ChapterID] = rec
		}
		return Classify("failed to read chapters", rows.Err())
	})
	return out, err
}

// Chapter loads a single chapter. A missing id is an ERR_406_NOT_FOUND error.
func (s *Store) Chapter(ctx context.Context, id int64) (ChapterRecord, error) {
	var rec ChapterRecord
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		rec, err = scanChapter(conn.QueryRowContext(ctx, `
			SELECT`+chapterColumns+`
			FROM chapters c`+chapterJoins+`
			WHERE c.id = ?`, id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("chapter %d not found", id), nil)
		}
		return Classify("failed to load chapter", err)
	})
	return rec, err
}

const forEachBatch = 100

// ForEachChapter calls fn for every chapter in id order. Chapters are read in
// batches and no handle is held while fn runs, so fn may use the store.
func (s *Store) ForEachChapter(ctx context.Context, fn func(ChapterRecord) error) error {
	var after int64
	for {
		batch := make([]ChapterRecord, 0, forEachBatch)
		err := s.WithConn(ctx, func(conn *sql.Conn) error {
			rows, err := conn.QueryContext(ctx, `
				SELECT`+chapterColumns+`
				FROM chapters c`+chapterJoins+`
				WHERE c.id > ?
				ORDER BY c.id
				LIMIT ?`, after, forEachBatch)
			if err != nil {
				return Classify("failed to page chapters", err)
			}
			defer func() { _ = rows.Close() }()

			for rows.Next() {
				rec, err := scanChapter(rows)
				if err != nil {
					return Classify("failed to scan chapter", err)
				}
				batch = append(batch, rec)
			}
			return Classify("failed to read chapters", rows.Err())
		})
		if err != nil {
			return err
		}

		for _, rec := range batch {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if len(batch) < forEachBatch {
			return nil
		}
		after = batch[len(batch)-1].ChapterID
	}
}

// ListAuthors returns every author with a work count, ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]AuthorSummary, error) {
	var out []AuthorSummary
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT a.name, COALESCE(a.dates, ''), a.is_saint, a.is_doctor, COUNT(w.id)
			FROM authors a
			LEFT JOIN works w ON w.author_id = a.id
			GROUP BY a.id
			ORDER BY a.name`)
		if err != nil {
			return Classify("failed to list authors", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var a AuthorSummary
			if err := rows.Scan(&a.Name, &a.Dates, &a.IsSaint, &a.IsDoctor, &a.WorkCount); err != nil {
				return Classify("failed to scan author", err)
			}
			out = append(out, a)
		}
		return Classify("failed to read authors", rows.Err())
	})
	return out, err
}

// AuthorIDs returns the ids of authors whose name contains substr,
// case-insensitively (Unicode-aware, unlike SQL LIKE).
func (s *Store) AuthorIDs(ctx context.Context, substr string) ([]int64, error) {
	needle := strings.ToLower(substr)

	var ids []int64
	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT id, name FROM authors`)
		if err != nil {
			return Classify("failed to list authors", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				return Classify("failed to scan author", err)
			}
			if strings.Contains(strings.ToLower(name), needle) {
				ids = append(ids, id)
			}
		}
		return Classify("failed to read authors", rows.Err())
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

// AuthorChapters browses chapters by author. With a non-empty phrase only
// chapters containing that exact normalized phrase are listed, once per
// occurrence. Results are capped at limit.
func (s *Store) AuthorChapters(ctx context.Context, authorSubstr, phrase string, limit int) ([]ChapterRecord, error) {
	authorIDs, err := s.AuthorIDs(ctx, authorSubstr)
	if err != nil || len(authorIDs) == 0 {
		return nil, err
	}

	args := make([]any, 0, len(authorIDs)+2)
	var query string
	if phrase != "" {
		query = `
			SELECT` + chapterColumns + `
			FROM phrases p
			JOIN chapters c ON p.chapter_id = c.id` + chapterJoins + `
			WHERE p.phrase = ? AND a.id IN (` + placeholders(len(authorIDs)) + `)
			ORDER BY p.id
			LIMIT ?`
		args = append(args, phrase)
	} else {
		query = `
			SELECT` + chapterColumns + `
			FROM chapters c` + chapterJoins + `
			WHERE a.id IN (` + placeholders(len(authorIDs)) + `)
			ORDER BY c.id
			LIMIT ?`
	}
	for _, id := range authorIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	var out []ChapterRecord
	err = s.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return Classify("failed to browse author chapters", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			rec, err := scanChapter(rows)
			if err != nil {
				return Classify("failed to scan chapter", err)
			}
			out = append(out, rec)
		}
		return Classify("failed to read author chapters", rows.Err())
	})
	return out, err
}

// Stats counts the corpus and its indexes at call time.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		dest  *int64
		query string
	}{
		{&st.TotalAuthors, `SELECT COUNT(*) FROM authors`},
		{&st.TotalWorks, `SELECT COUNT(*) FROM works`},
		{&st.TotalChapters, `SELECT COUNT(*) FROM chapters`},
		{&st.UniquePhrases, `SELECT COUNT(DISTINCT phrase) FROM phrases`},
		{&st.TotalPhraseOccurrences, `SELECT COUNT(*) FROM phrases`},
		{&st.TotalTrigrams, `SELECT COUNT(*) FROM trigrams`},
	}

	err := s.WithConn(ctx, func(conn *sql.Conn) error {
		for _, c := range counts {
			if err := conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
				return Classify("failed to count corpus", err)
			}
		}
		return nil
	})
	return st, err
}
