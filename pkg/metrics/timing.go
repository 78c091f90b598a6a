// Package metrics records timings and counts for the tree engine's hot
// paths: filter sweeps, flat list splices, window renders, node loading and
// terminal redraws.
//
// Values live in memory and are updated atomically. Collection is on by
// default; TREEKIT_METRICS=0 switches it off.
//
// Usage:
//
//	func (t *Tree) Filter() {
//	    defer metrics.Timer(metrics.FilterApply)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TREEKIT_METRICS") != "0")
}

// Enabled reports whether metrics are collected.
func Enabled() bool { return enabled.Load() }

// SetEnabled switches collection on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric aggregates the durations of one named operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

var registry struct {
	sync.Mutex
	timings  []*TimingMetric
	counters []*Counter
}

func timing(name string) *TimingMetric {
	m := newTimingMetric(name)
	registry.Lock()
	registry.timings = append(registry.timings, m)
	registry.Unlock()
	return m
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

func (m *TimingMetric) Name() string { return m.name }
func (m *TimingMetric) Count() int64 { return m.count.Load() }
func (m *TimingMetric) MaxNs() int64 { return m.max.Load() }

// MinNs is 0 when nothing was recorded.
func (m *TimingMetric) MinNs() int64 { return m.min.Load() }

// AvgNs is 0 when nothing was recorded.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.total.Load() / n
}

// TimingStats is a snapshot of a timing metric in milliseconds.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

func (m *TimingMetric) Stats() TimingStats {
	ms := func(ns int64) float64 { return float64(ns) / float64(time.Millisecond) }
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: ms(m.total.Load()),
		AvgMs:   ms(m.AvgNs()),
		MaxMs:   ms(m.MaxNs()),
		MinMs:   ms(m.MinNs()),
	}
}

func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// Timer starts measuring m and returns the function that stops it:
//
//	defer metrics.Timer(metrics.NodesInsert)()
func Timer(m *TimingMetric) func() {
	if m == nil || !enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Engine and viewer timings.
var (
	FilterApply    = timing("filter_apply")
	FlatListAdd    = timing("flat_list_add")
	FlatListRemove = timing("flat_list_remove")
	ViewportRender = timing("viewport_render")
	NodesInsert    = timing("nodes_insert")
	NodesDelete    = timing("nodes_delete")
	NodeOrder      = timing("node_order")
	StoreLoad      = timing("store_load")
	UIRender       = timing("ui_render")
)

// AllTimingMetrics returns the registered timings in declaration order.
func AllTimingMetrics() []*TimingMetric {
	registry.Lock()
	defer registry.Unlock()
	return append([]*TimingMetric(nil), registry.timings...)
}

// AllTimingStats returns snapshots of the timings that have samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// ResetAll clears every registered timing and counter.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}
