package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Aman-CERP/patrology/internal/errors"
)

// maxLineBytes bounds a single JSONL document (a whole work).
const maxLineBytes = 64 * 1024 * 1024

// ReadJSONL decodes one Document per line. Blank lines are skipped; a
// malformed line fails the whole read with its line number.
func ReadJSONL(r io.Reader) ([]Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var doc Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, errors.New(errors.ErrCodeMalformedCorpus,
				fmt.Sprintf("line %d: invalid document", line), err).
				WithDetail("line", fmt.Sprint(line))
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeMalformedCorpus,
			fmt.Sprintf("failed reading corpus after line %d", line), err)
	}
	return docs, nil
}

// LoadFile reads a JSONL corpus file.
func LoadFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeMalformedCorpus,
			fmt.Sprintf("cannot open corpus file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	docs, err := ReadJSONL(f)
	if err != nil {
		if pe, ok := errors.As(err); ok {
			return nil, pe.WithDetail("file", path)
		}
		return nil, err
	}
	return docs, nil
}

// WriteJSONL encodes documents one per line.
func WriteJSONL(w io.Writer, docs []Document) error {
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document %q: %w", doc.Work.URL, err)
		}
	}
	return nil
}
