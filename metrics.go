package noted

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one client counter.
type MetricID uint16

const (
	// MetricNavigationAllowed counts guard evaluations that allowed navigation.
	MetricNavigationAllowed MetricID = iota
	// MetricNavigationRedirectLogin counts guard redirects to the login route.
	MetricNavigationRedirectLogin
	// MetricNavigationRedirectLanding counts guard redirects to the landing route.
	MetricNavigationRedirectLanding
	// MetricRequestAuthorized counts requests sent with a bearer token.
	MetricRequestAuthorized
	// MetricRequestAnonymous counts requests sent without a bearer token.
	MetricRequestAnonymous
	// MetricAuthFailure counts responses with HTTP 401.
	MetricAuthFailure
	// MetricSessionCleared counts clears that removed a stored token.
	MetricSessionCleared
	// MetricLoginSuccess counts logins that stored a session.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricRequestLatency is the round-trip latency histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters and one latency histogram.
// A nil or disabled *Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram buckets are
// non-cumulative with upper bounds 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, +Inf.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only MetricRequestLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricRequestLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all metrics. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
