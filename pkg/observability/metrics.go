package observability

import (
	"strings"
	"sync"
	"time"
)

// Metric names. Ledger metrics carry a LedgerKey tag.
const (
	MetricOperationTotal    = "autopay.operation.total"
	MetricOperationDuration = "autopay.operation.duration"
	MetricOperationErrors   = "autopay.operation.errors"

	MetricObligationsCreated   = "autopay.obligations.created"
	MetricObligationsFulfilled = "autopay.obligations.fulfilled"
	MetricObligationsCancelled = "autopay.obligations.cancelled"

	MetricSweeps            = "autopay.sweep.runs"
	MetricSweepDuration     = "autopay.sweep.duration"
	MetricSchedulesExecuted = "autopay.schedules.executed"
	MetricSchedulesMissed   = "autopay.schedules.missed"

	MetricOutboxPending = "autopay.outbox.pending"
	MetricOutboxFailed  = "autopay.outbox.failed"

	MetricEventsPublished = "autopay.events.published"
	MetricEventsConsumed  = "autopay.events.consumed"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{key, value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every value in process. The keeper logs it on its
// stats tick; tests read it back with the Get methods, passing the same tags
// in the same order.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[metricKey(name, tags)] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[metricKey(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	key := metricKey(name, tags)
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[metricKey(name, tags)]
}

func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[metricKey(name, tags)]
}

func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.timings[metricKey(name, tags)]...)
}

// metricKey renders name:k=v:k=v.
func metricKey(name string, tags []Tag) string {
	var b strings.Builder
	b.WriteString(name)
	for _, t := range tags {
		b.WriteByte(':')
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}
