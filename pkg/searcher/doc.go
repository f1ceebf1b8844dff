// Package searcher opens an indexed patrology corpus for embedding phrase
// search in other Go programs.
//
//	s, err := searcher.Open(ctx, "/srv/patrology")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Query: "illustrious apostles",
//	    Type:  searcher.Exact,
//	})
//
// A Searcher never takes the writer lock, so it can run next to an
// indexer or a server over the same data directory. It is safe for
// concurrent use.
package searcher
