package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Sink writes one rendered progress line at a time, grounded on
// original_source/src/pp/Script.cpp's setProgressOutput/
// setProgressOutputFile: progress goes to an arbitrary stream, which may
// be stdout, stderr, or a file the script opens in truncate mode.
type Sink struct {
	mu        sync.Mutex
	w         io.Writer
	tmpl      string
	tracker   *Tracker
	lastWrite time.Time
	interval  time.Duration
}

// NewSink builds a Sink writing tmpl-rendered lines to w, never more often
// than once per interval (§6: "rate-limited to 1Hz").
func NewSink(w io.Writer, tmpl string, interval time.Duration) *Sink {
	return &Sink{w: w, tmpl: tmpl, tracker: New(time.Now()), interval: interval}
}

// Open resolves the --progress target: "-"/"" means stdout, "stderr" means
// stderr, anything else is a path truncated and written to, mirroring
// setProgressOutputFile's std::ofstream::trunc.
func Open(target string) (io.WriteCloser, error) {
	switch target {
	case "", "-", "stdout":
		return nopCloser{os.Stdout}, nil
	case "stderr":
		return nopCloser{os.Stderr}, nil
	default:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, wrapf("open %s: %w", target, err)
		}
		return f, nil
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Func returns a schedule.ProgressFunc-compatible callback. Every
// observation updates the Tracker; a line is only written when at least
// interval has elapsed since the last write, or the run is complete
// (done >= total, on every such call), so the final 100% state is never
// swallowed by the rate limit.
func (s *Sink) Func() func(done, total int) {
	return func(done, total int) {
		now := time.Now()
		s.tracker.Update(now, done, total)

		s.mu.Lock()
		defer s.mu.Unlock()
		finished := total > 0 && done >= total
		if !finished && now.Sub(s.lastWrite) < s.interval {
			return
		}
		s.lastWrite = now
		line := Format(s.tmpl, s.tracker.Snapshot(now))
		fmt.Fprintln(s.w, line)
	}
}
