package document

import (
	"sort"
	"sync"
	"time"
)

type renderSample struct {
	at       time.Time
	page     int
	duration time.Duration
	failed   bool
}

// StatsSnapshot aggregates the page renders inside the stats window.
// Latencies cover successful renders only and are fractional milliseconds.
type StatsSnapshot struct {
	Renders     int     `json:"renders"`
	Failures    int     `json:"failures"`
	Pages       int     `json:"pages"` // distinct pages rendered
	SlowestPage int     `json:"slowest_page,omitempty"`
	MinMs       float64 `json:"min_ms"`
	MaxMs       float64 `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
}

// Stats tracks recent page render outcomes within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []renderSample
	maxAge  time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]renderSample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds a successful render of page. Negative durations are stored as
// zero.
func (s *Stats) Record(page int, d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.add(renderSample{page: page, duration: d})
}

// RecordFailure counts a render of page that returned an error.
func (s *Stats) RecordFailure(page int) {
	s.add(renderSample{page: page, failed: true})
}

func (s *Stats) add(sm renderSample) {
	sm.at = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	var snap StatsSnapshot
	pages := make(map[int]bool)
	values := make([]float64, 0, len(s.samples))
	var sum, slowest float64
	for _, sm := range s.samples {
		if sm.failed {
			snap.Failures++
			continue
		}
		ms := float64(sm.duration) / float64(time.Millisecond)
		pages[sm.page] = true
		values = append(values, ms)
		sum += ms
		if len(values) == 1 || ms > slowest {
			slowest = ms
			snap.SlowestPage = sm.page
		}
	}
	snap.Renders = len(values)
	snap.Pages = len(pages)
	if len(values) == 0 {
		return snap
	}

	sort.Float64s(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = sum / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
