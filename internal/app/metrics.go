package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts session operations and times document loads and saves.
// All methods are safe for concurrent use.
type Metrics struct {
	// Document loads (open, reload, restore)
	loadCount   atomic.Uint64
	loadTotalNs atomic.Int64
	loadMinNs   atomic.Int64
	loadMaxNs   atomic.Int64
	lastLoadNs  atomic.Int64
	loadFailed  atomic.Uint64
	reloadCount atomic.Uint64

	// Saves
	saveCount   atomic.Uint64
	saveTotalNs atomic.Int64
	saveFailed  atomic.Uint64

	// Edits
	valueSets  atomic.Uint64
	flagSets   atomic.Uint64
	lastValues atomic.Int64
	examples   atomic.Int64

	startNs atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

// RecordLoad records a successful document load of values entries, of
// which examples have an example.
func (m *Metrics) RecordLoad(duration time.Duration, values, examples int, reload bool) {
	ns := duration.Nanoseconds()

	m.loadCount.Add(1)
	m.loadTotalNs.Add(ns)
	m.lastLoadNs.Store(ns)
	m.lastValues.Store(int64(values))
	m.examples.Store(int64(examples))
	if reload {
		m.reloadCount.Add(1)
	}

	for {
		old := m.loadMinNs.Load()
		if ns >= old || m.loadMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.loadMaxNs.Load()
		if ns <= old || m.loadMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordLoadFailed records a load that could not read or decode its source.
func (m *Metrics) RecordLoadFailed() {
	m.loadFailed.Add(1)
}

// RecordSave records a save attempt.
func (m *Metrics) RecordSave(duration time.Duration, err error) {
	if err != nil {
		m.saveFailed.Add(1)
		return
	}
	m.saveCount.Add(1)
	m.saveTotalNs.Add(duration.Nanoseconds())
}

// RecordValueSet records a value assignment.
func (m *Metrics) RecordValueSet() {
	m.valueSets.Add(1)
}

// RecordFlagSet records an explicit change of an edited flag.
func (m *Metrics) RecordFlagSet() {
	m.flagSets.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	loadCount := m.loadCount.Load()
	saveCount := m.saveCount.Load()

	var avgLoadNs int64
	if loadCount > 0 {
		avgLoadNs = m.loadTotalNs.Load() / int64(loadCount)
	}

	var avgSaveNs int64
	if saveCount > 0 {
		avgSaveNs = m.saveTotalNs.Load() / int64(saveCount)
	}

	minLoadNs := m.loadMinNs.Load()
	if minLoadNs == 1<<63-1 {
		minLoadNs = 0
	}

	return MetricsSnapshot{
		Uptime:        time.Duration(time.Now().UnixNano() - m.startNs.Load()),
		LoadCount:     loadCount,
		ReloadCount:   m.reloadCount.Load(),
		LoadFailed:    m.loadFailed.Load(),
		AvgLoadNs:     avgLoadNs,
		MinLoadNs:     minLoadNs,
		MaxLoadNs:     m.loadMaxNs.Load(),
		LastLoadNs:    m.lastLoadNs.Load(),
		SaveCount:     saveCount,
		SaveFailed:    m.saveFailed.Load(),
		AvgSaveNs:     avgSaveNs,
		ValueSets:     m.valueSets.Load(),
		FlagSets:      m.flagSets.Load(),
		Values:        int(m.lastValues.Load()),
		ExamplesFound: int(m.examples.Load()),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.loadCount.Store(0)
	m.loadTotalNs.Store(0)
	m.loadMinNs.Store(1<<63 - 1)
	m.loadMaxNs.Store(0)
	m.lastLoadNs.Store(0)
	m.loadFailed.Store(0)
	m.reloadCount.Store(0)
	m.saveCount.Store(0)
	m.saveTotalNs.Store(0)
	m.saveFailed.Store(0)
	m.valueSets.Store(0)
	m.flagSets.Store(0)
	m.lastValues.Store(0)
	m.examples.Store(0)
	m.startNs.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime        time.Duration
	LoadCount     uint64
	ReloadCount   uint64
	LoadFailed    uint64
	AvgLoadNs     int64
	MinLoadNs     int64
	MaxLoadNs     int64
	LastLoadNs    int64
	SaveCount     uint64
	SaveFailed    uint64
	AvgSaveNs     int64
	ValueSets     uint64
	FlagSets      uint64
	Values        int
	ExamplesFound int
}

// AvgLoad returns the average load time.
func (s MetricsSnapshot) AvgLoad() time.Duration {
	return time.Duration(s.AvgLoadNs)
}

// ExampleCoverage returns the percentage of values of the last loaded
// document that have an example.
func (s MetricsSnapshot) ExampleCoverage() float64 {
	if s.Values == 0 {
		return 0
	}
	return float64(s.ExamplesFound) / float64(s.Values) * 100
}

// FailureRate returns the percentage of loads that failed.
func (s MetricsSnapshot) FailureRate() float64 {
	total := s.LoadCount + s.LoadFailed
	if total == 0 {
		return 0
	}
	return float64(s.LoadFailed) / float64(total) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}
