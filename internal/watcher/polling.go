package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by rescanning the directory on an interval.
type PollingWatcher struct {
	opts      Options
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.Mutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher.
func NewPollingWatcher(opts Options) *PollingWatcher {
	opts = opts.WithDefaults()
	return &PollingWatcher{
		opts:      opts,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start records the current files as a baseline, then polls until ctx is
// canceled or Stop is called. Files present at start are not reported.
func (p *PollingWatcher) Start(ctx context.Context, dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	p.mu.Lock()
	p.rootPath = absPath
	state, err := p.scan()
	if err == nil {
		p.fileState = state
	}
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// scan lists watched files of the directory. Must be called with lock held.
func (p *PollingWatcher) scan() (map[string]fileSnapshot, error) {
	entries, err := os.ReadDir(p.rootPath)
	if err != nil {
		return nil, err
	}

	state := make(map[string]fileSnapshot, len(entries))
	for _, e := range entries {
		if e.IsDir() || !p.opts.Watches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		state[e.Name()] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return state, nil
}

// detectChanges compares the directory with the previous scan.
func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	current, err := p.scan()
	if err != nil {
		return fmt.Errorf("scan directory for changes: %w", err)
	}

	now := time.Now()
	for name, snap := range current {
		prev, exists := p.fileState[name]
		switch {
		case !exists:
			p.emitEvent(FileEvent{Path: name, Operation: OpCreate, Timestamp: now})
		case prev.size != snap.size || !prev.modTime.Equal(snap.modTime):
			p.emitEvent(FileEvent{Path: name, Operation: OpModify, Timestamp: now})
		}
	}
	for name := range p.fileState {
		if _, exists := current[name]; !exists {
			p.emitEvent(FileEvent{Path: name, Operation: OpDelete, Timestamp: now})
		}
	}

	p.fileState = current
	return nil
}

// emitEvent sends an event without blocking. Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	select {
	case p.events <- event:
	default:
		slog.Warn("polling_buffer_full",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()))
	}
}
