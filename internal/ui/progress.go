package ui

import (
	"sync"
	"time"
)

// ProgressTracker keeps the state of the current stage. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	work       string
	startTime  time.Time
	stageStart time.Time
	errors     []ErrorEvent
	warnings   []ErrorEvent

	// smoothed ETA of the previous update
	lastETA time.Duration
	peak    float64
}

// ProgressStats is a snapshot of the tracker.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	ETA        time.Duration
	Rate       float64
	PeakRate   float64
	Work       string
	ErrorCount int
	WarnCount  int
	Elapsed    time.Duration
}

// NewProgressTracker creates a tracker in the loading stage.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      StageLoading,
		startTime:  now,
		stageStart: now,
	}
}

// SetStage transitions to a new stage and resets its counters.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.work = ""
	p.stageStart = time.Now()
	p.lastETA = 0
	p.peak = 0
}

// Update records chapters done within the current stage. Counts never go
// backwards, so out-of-order updates from concurrent workers are ignored.
func (p *ProgressTracker) Update(current int, work string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current < p.current {
		return
	}
	p.current = current
	if work != "" {
		p.work = work
	}
	if r := p.rateLocked(); r > p.peak {
		p.peak = r
	}
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}
}

// Errors returns a copy of the recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ErrorEvent(nil), p.errors...)
}

// Stats returns a snapshot of the current progress.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Work:       p.work,
		ErrorCount: len(p.errors),
		WarnCount:  len(p.warnings),
		Rate:       p.rateLocked(),
		PeakRate:   p.peak,
		Elapsed:    time.Since(p.startTime),
	}
	if p.total > 0 {
		st.Progress = float64(p.current) / float64(p.total)
		if st.Progress > 1 {
			st.Progress = 1
		}
	}
	st.ETA = p.etaLocked(st.Rate)
	return st
}

func (p *ProgressTracker) rateLocked() float64 {
	elapsed := time.Since(p.stageStart).Seconds()
	if elapsed <= 0 || p.current == 0 {
		return 0
	}
	return float64(p.current) / elapsed
}

// etaLocked estimates the remaining time, smoothed exponentially against
// the previous estimate.
func (p *ProgressTracker) etaLocked(rate float64) time.Duration {
	if rate <= 0 || p.total <= p.current {
		return 0
	}
	raw := time.Duration(float64(p.total-p.current) / rate * float64(time.Second))
	if p.lastETA == 0 {
		p.lastETA = raw
		return raw
	}
	const alpha = 0.3
	p.lastETA = time.Duration(alpha*float64(raw) + (1-alpha)*float64(p.lastETA))
	return p.lastETA
}
