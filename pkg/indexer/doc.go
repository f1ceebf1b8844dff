// Package indexer ingests JSONL corpus files into a patrology data
// directory from other Go programs.
//
// An Indexer holds the data directory's writer lock from Open to Close,
// so only one runs per directory; searches are unaffected.
package indexer
