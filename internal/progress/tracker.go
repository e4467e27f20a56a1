// Package progress renders the single-line progress template (§6) from the
// Scheduler's done/total counters, and an optional live Bubble Tea view.
// Grounded on original_source/src/pp.cpp's default format string
// ("%dY-%dM-%dD %lH:%lM:%lS: %c / %t commands executed, %p%%, ETA %re\n")
// and Script.cpp's setProgressFormat/setProgressOutput/setProgressOutputFile,
// which let a script redirect progress to stdout, stderr or a named file.
package progress

import (
	"sync"
	"time"
)

// sample is one (timestamp, count) observation used to derive the recent
// window's rate, distinct from the global rate computed since Start.
type sample struct {
	at    time.Time
	count int
}

// Tracker accumulates done/total observations from schedule.ProgressFunc
// and derives the rate/ETA figures the template placeholders need. The
// recent window is a trailing slice of samples no older than
// recentWindow, giving a rate that reacts to slowdowns/speedups instead of
// smoothing them out over the whole run the way the global average does.
type Tracker struct {
	mu      sync.Mutex
	start   time.Time
	samples []sample
	current int
	total   int
}

const recentWindow = 10 * time.Second

// New starts a Tracker with its clock zeroed at now.
func New(now time.Time) *Tracker {
	return &Tracker{start: now}
}

// Update records a new done/total observation.
func (t *Tracker) Update(now time.Time, done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = done
	t.total = total
	t.samples = append(t.samples, sample{at: now, count: done})
	cutoff := now.Add(-recentWindow)
	i := 0
	for i < len(t.samples) && t.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.samples = append([]sample(nil), t.samples[i:]...)
	}
}

// Snapshot is a point-in-time rendering of a Tracker's state.
type Snapshot struct {
	Current    int
	Total      int
	Percent    float64
	Elapsed    time.Duration
	GlobalRate float64 // items/sec since Start
	RecentRate float64 // items/sec over the trailing window
	GlobalETA  time.Duration
	RecentETA  time.Duration
	Now        time.Time
}

// Snapshot computes the current figures as of now.
func (t *Tracker) Snapshot(now time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{Current: t.current, Total: t.total, Elapsed: now.Sub(t.start), Now: now}
	if t.total > 0 {
		s.Percent = 100 * float64(t.current) / float64(t.total)
	}
	if elapsed := s.Elapsed.Seconds(); elapsed > 0 {
		s.GlobalRate = float64(t.current) / elapsed
	}
	if len(t.samples) >= 2 {
		first, last := t.samples[0], t.samples[len(t.samples)-1]
		if span := last.at.Sub(first.at).Seconds(); span > 0 {
			s.RecentRate = float64(last.count-first.count) / span
		}
	}

	remaining := t.total - t.current
	if remaining > 0 {
		if s.GlobalRate > 0 {
			s.GlobalETA = time.Duration(float64(remaining) / s.GlobalRate * float64(time.Second))
		}
		if s.RecentRate > 0 {
			s.RecentETA = time.Duration(float64(remaining) / s.RecentRate * float64(time.Second))
		}
	}
	return s
}
