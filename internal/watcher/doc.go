// Package watcher watches a drop directory for corpus files.
//
// fsnotify is used where available, with polling as a fallback for
// network mounts and container volumes. Events are debounced so that a
// file copied in several writes produces one batch, and only files with a
// watched extension (".jsonl" by default) are reported.
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx, "/var/lib/patrology/incoming")
//
//	for batch := range w.Events() {
//	    for _, ev := range batch {
//	        // ev.Path is relative to the drop directory
//	    }
//	}
package watcher
