package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name  string
	value atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

func counter(name string) *Counter {
	c := newCounter(name)
	registry.Lock()
	registry.counters = append(registry.counters, c)
	registry.Unlock()
	return c
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(n int64) {
	if enabled.Load() {
		c.value.Add(n)
	}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Value() int64 { return c.value.Load() }
func (c *Counter) Reset()       { c.value.Store(0) }

// CounterStats is a snapshot of a counter.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Window and animation counters.
var (
	Materialized       = counter("materialized")
	Dematerialized     = counter("dematerialized")
	TransitionsStarted = counter("transitions_started")
	TransitionsAborted = counter("transitions_aborted")
)

// AllCounters returns the registered counters in declaration order.
func AllCounters() []*Counter {
	registry.Lock()
	defer registry.Unlock()
	return append([]*Counter(nil), registry.counters...)
}

// AllCounterStats returns a snapshot of every counter.
func AllCounterStats() []CounterStats {
	all := AllCounters()
	out := make([]CounterStats, 0, len(all))
	for _, c := range all {
		out = append(out, CounterStats{Name: c.Name(), Value: c.Value()})
	}
	return out
}
