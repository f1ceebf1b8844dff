// Package integration holds end-to-end tests that drive ingestion, the
// full-text backends, the search engine and the drop-directory watcher
// together against a real on-disk corpus.
package integration
