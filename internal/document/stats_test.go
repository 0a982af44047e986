package document

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for i, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(i+1, time.Duration(ms)*time.Millisecond)
	}

	snap := stats.Snapshot()
	if snap.Renders != 5 {
		t.Fatalf("expected renders=5, got %d", snap.Renders)
	}
	if snap.Pages != 5 {
		t.Fatalf("expected pages=5, got %d", snap.Pages)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %f", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %f", snap.MaxMs)
	}
	if snap.SlowestPage != 5 {
		t.Fatalf("expected slowest page 5, got %d", snap.SlowestPage)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if math.Abs(snap.P95Ms-480) > 1e-9 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if math.Abs(snap.P99Ms-496) > 1e-9 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsKeepsSubMillisecondLatency(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(3, 250*time.Microsecond)
	stats.Record(3, 750*time.Microsecond)

	snap := stats.Snapshot()
	if snap.MinMs != 0.25 {
		t.Fatalf("expected min=0.25ms, got %f", snap.MinMs)
	}
	if snap.AvgMs != 0.5 {
		t.Fatalf("expected avg=0.5ms, got %f", snap.AvgMs)
	}
	if snap.Pages != 1 {
		t.Fatalf("expected 1 distinct page, got %d", snap.Pages)
	}
}

func TestStatsFailuresExcludedFromLatency(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.RecordFailure(7)
	stats.Record(2, 40*time.Millisecond)

	snap := stats.Snapshot()
	if snap.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", snap.Failures)
	}
	if snap.Renders != 1 || snap.MinMs != 40 {
		t.Fatalf("expected one 40ms render, got renders=%d min=%f", snap.Renders, snap.MinMs)
	}

	only := NewStats(time.Hour)
	only.RecordFailure(1)
	if snap := only.Snapshot(); snap.Failures != 1 || snap.Renders != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected failure-only snapshot, got %+v", snap)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(1, 100*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Renders != 0 {
		t.Fatalf("expected renders=0 after prune, got %d", snap.Renders)
	}

	stats.Record(1, 200*time.Millisecond)
	snap := stats.Snapshot()
	if snap.Renders != 1 {
		t.Fatalf("expected renders=1 for fresh sample, got %d", snap.Renders)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(1, -10*time.Millisecond)
	snap := stats.Snapshot()
	if snap.Renders != 1 {
		t.Fatalf("expected renders=1, got %d", snap.Renders)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsFromRealRenders(t *testing.T) {
	path := writeReport(t, 20)

	r := NewPDFRenderer(false)
	if _, err := r.Load(context.Background(), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	stats := NewStats(time.Hour)
	for page := 1; page <= 20; page++ {
		start := time.Now()
		if _, err := r.RenderPage(context.Background(), page, 800); err != nil {
			t.Fatalf("render page %d: %v", page, err)
		}
		stats.Record(page, time.Since(start))
	}

	snap := stats.Snapshot()
	if snap.Renders != 20 || snap.Pages != 20 {
		t.Fatalf("expected 20 renders over 20 pages, got %+v", snap)
	}
	if snap.MaxMs <= 0 {
		t.Fatalf("expected a measurable render latency, got %+v", snap)
	}
}
