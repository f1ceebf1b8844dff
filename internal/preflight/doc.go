// Package preflight checks that the host can hold and serve a corpus
// before indexing starts.
//
// The checks cover:
//   - Free disk space under the data directory
//   - Write access to the data directory
//   - The open file descriptor limit
//   - Integrity of an existing corpus database
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg.Paths.DataDir, cfg.DatabasePath())
//	if checker.HasCriticalFailures(results) {
//	    // refuse to index
//	}
package preflight
