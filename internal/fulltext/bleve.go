package fulltext

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/patrology/internal/errors"
)

const (
	// TextAnalyzerName splits on Unicode word boundaries and lowercases.
	TextAnalyzerName = "patrology_text"

	contentField   = "content"
	chapterIDField = "chapter_id"
)

// BlevePostings implements Postings with a bleve index. Document ids are
// decimal chapter ids.
type BlevePostings struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ Postings = (*BlevePostings)(nil)

type bleveDocument struct {
	Content   string  `json:"content"`
	ChapterID float64 `json:"chapter_id"`
}

// validateIndexIntegrity checks index_meta.json of an existing index.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// checkIndexDir refuses an existing path that is not a bleve index, so that
// recovery never clears a directory holding anything else. An empty
// directory is removed and recreated by bleve.New.
func checkIndexDir(path string) error {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot stat full-text index path: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("full-text index path %s is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("cannot read full-text index path: %w", err)
	}
	if len(entries) == 0 {
		return os.Remove(path)
	}
	for _, e := range entries {
		if e.Name() == "index_meta.json" || (e.Name() == "store" && e.IsDir()) {
			return nil
		}
	}
	return fmt.Errorf("%s is not empty and is not a full-text index", path)
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleve opens or creates a bleve index at path; "" is in-memory.
// A corrupted index is cleared and recreated empty, to be refilled with
// `patrology index --rebuild-fulltext`.
func NewBleve(path string) (*BlevePostings, error) {
	idx, err := openBleve(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "failed to open full-text index", err).
			WithDetail("path", path)
	}
	slog.Debug("fulltext_backend_opened",
		slog.String("backend", string(BackendBleve)),
		slog.String("path", path))
	return &BlevePostings{index: idx, path: path}, nil
}

func openBleve(path string) (bleve.Index, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}
	if path == "" {
		return bleve.NewMemOnly(indexMapping)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := checkIndexDir(path); err != nil {
		return nil, err
	}

	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("fulltext_index_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("full-text index corrupted and cannot be removed: %w (original error: %v)", removeErr, validErr)
		}
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return bleve.New(path, indexMapping)
	}
	if err != nil && isCorruptionError(err) {
		slog.Warn("fulltext_index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("full-text index corrupted, cannot clear: %w (original: %v)", removeErr, err)
		}
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(TextAnalyzerName, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = TextAnalyzerName
	text.Store = false

	id := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(contentField, text)
	doc.AddFieldMappingsAt(chapterIDField, id)

	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = TextAnalyzerName
	return indexMapping, nil
}

// Add implements Postings. tx is ignored.
func (b *BlevePostings) Add(_ context.Context, _ *sql.Tx, chapterID int64, content string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New(errors.ErrCodeStoreClosed, "full-text index is closed", nil)
	}

	doc := bleveDocument{Content: content, ChapterID: float64(chapterID)}
	if err := b.index.Index(strconv.FormatInt(chapterID, 10), doc); err != nil {
		return errors.StoreError(fmt.Sprintf("failed to post chapter %d", chapterID), err)
	}
	return nil
}

// Remove implements Postings. tx is ignored.
func (b *BlevePostings) Remove(_ context.Context, _ *sql.Tx, chapterID int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New(errors.ErrCodeStoreClosed, "full-text index is closed", nil)
	}

	if err := b.index.Delete(strconv.FormatInt(chapterID, 10)); err != nil {
		return errors.StoreError(fmt.Sprintf("failed to remove posting for chapter %d", chapterID), err)
	}
	return nil
}

// Match implements Postings.
func (b *BlevePostings) Match(ctx context.Context, expr string, limit int) ([]int64, error) {
	e, err := ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	return b.search(ctx, toBleve(e.root), limit)
}

// MatchAny implements Postings.
func (b *BlevePostings) MatchAny(ctx context.Context, words []string, limit int) ([]int64, error) {
	e := AnyOf(words)
	if e == nil {
		return nil, nil
	}
	return b.search(ctx, toBleve(e.root), limit)
}

func (b *BlevePostings) search(ctx context.Context, q query.Query, limit int) ([]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errors.New(errors.ErrCodeStoreClosed, "full-text index is closed", nil)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{chapterIDField})

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.StoreError("full-text search failed", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			return nil, errors.InternalError(fmt.Sprintf("malformed posting id %q", hit.ID), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toBleve translates a parsed expression into a bleve query tree. Terms
// and phrases become match-phrase queries so they go through the same
// analyzer as indexed content.
func toBleve(n node) query.Query {
	switch x := n.(type) {
	case termNode:
		if x.prefix {
			q := bleve.NewPrefixQuery(strings.ToLower(x.text))
			q.SetField(contentField)
			return q
		}
		q := bleve.NewMatchPhraseQuery(x.text)
		q.SetField(contentField)
		return q
	case orNode:
		children := make([]query.Query, len(x.children))
		for i, c := range x.children {
			children[i] = toBleve(c)
		}
		return bleve.NewDisjunctionQuery(children...)
	case andNode:
		q := query.NewBooleanQuery(nil, nil, nil)
		for _, c := range x.children {
			if nn, ok := c.(notNode); ok {
				q.AddMustNot(toBleve(nn.x))
			} else {
				q.AddMust(toBleve(c))
			}
		}
		return q
	case notNode:
		q := query.NewBooleanQuery(nil, nil, nil)
		q.AddMust(bleve.NewMatchAllQuery())
		q.AddMustNot(toBleve(x.x))
		return q
	}
	return bleve.NewMatchNoneQuery()
}

// Transactional implements Postings.
func (b *BlevePostings) Transactional() bool {
	return false
}

// Count implements Postings.
func (b *BlevePostings) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, errors.New(errors.ErrCodeStoreClosed, "full-text index is closed", nil)
	}

	n, err := b.index.DocCount()
	if err != nil {
		return 0, errors.StoreError("failed to count postings", err)
	}
	return int(n), nil
}

// Reset implements Postings by recreating the index.
func (b *BlevePostings) Reset(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New(errors.ErrCodeStoreClosed, "full-text index is closed", nil)
	}

	if err := b.index.Close(); err != nil {
		return errors.StoreError("failed to close full-text index", err)
	}
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			return errors.StoreError("failed to clear full-text index", err)
		}
	}
	idx, err := openBleve(b.path)
	if err != nil {
		b.closed = true
		return errors.StoreError("failed to recreate full-text index", err)
	}
	b.index = idx
	return nil
}

// Close implements Postings. Closing twice is a no-op.
func (b *BlevePostings) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
