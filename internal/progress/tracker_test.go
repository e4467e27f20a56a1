package progress

import (
	"testing"
	"time"
)

func TestSnapshotPercentAndRates(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(start)

	tr.Update(start, 0, 10)
	tr.Update(start.Add(5*time.Second), 5, 10)

	snap := tr.Snapshot(start.Add(5 * time.Second))
	if snap.Percent != 50 {
		t.Errorf("Percent = %v, want 50", snap.Percent)
	}
	if snap.GlobalRate <= 0 {
		t.Errorf("GlobalRate = %v, want > 0", snap.GlobalRate)
	}
	if snap.GlobalETA <= 0 {
		t.Errorf("GlobalETA = %v, want > 0 with work remaining", snap.GlobalETA)
	}
}

func TestSnapshotZeroTotalNoDivideByZero(t *testing.T) {
	start := time.Now()
	tr := New(start)
	tr.Update(start, 0, 0)
	snap := tr.Snapshot(start)
	if snap.Percent != 0 {
		t.Errorf("Percent = %v, want 0 with zero total", snap.Percent)
	}
}

func TestSnapshotCompleteHasZeroETA(t *testing.T) {
	start := time.Now()
	tr := New(start)
	tr.Update(start.Add(time.Second), 10, 10)
	snap := tr.Snapshot(start.Add(time.Second))
	if snap.Percent != 100 {
		t.Errorf("Percent = %v, want 100", snap.Percent)
	}
	if snap.GlobalETA != 0 {
		t.Errorf("GlobalETA = %v, want 0 when nothing remains", snap.GlobalETA)
	}
}

func TestRecentWindowDropsOldSamples(t *testing.T) {
	start := time.Now()
	tr := New(start)
	tr.Update(start, 0, 100)
	tr.Update(start.Add(20*time.Second), 20, 100) // drops the 0s sample, now older than recentWindow
	tr.Update(start.Add(25*time.Second), 25, 100)

	tr.mu.Lock()
	n := len(tr.samples)
	tr.mu.Unlock()
	if n != 2 {
		t.Errorf("samples retained = %d, want 2 (only within the trailing window)", n)
	}
}
