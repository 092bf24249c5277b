package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or latency histogram.
type MetricID uint16

const (
	// MetricLoadRestored counts initial loads that restored a session.
	MetricLoadRestored MetricID = iota
	// MetricLoadEmpty counts initial loads that found no complete session.
	MetricLoadEmpty
	// MetricLoadCorrupt counts initial loads whose user record failed to decode.
	MetricLoadCorrupt
	// MetricLoadUnavailable counts initial loads that could not read storage.
	MetricLoadUnavailable
	// MetricLoginSuccess counts logins that were persisted and published.
	MetricLoginSuccess
	// MetricLoginFailure counts logins that failed to persist.
	MetricLoginFailure
	// MetricLoginRollbackFailure counts failed attempts to restore storage after a failed login.
	MetricLoginRollbackFailure
	// MetricLogout counts completed logouts, including those that returned an error.
	MetricLogout
	// MetricLogoutStorageFailure counts logouts whose key removal failed.
	MetricLogoutStorageFailure
	// MetricRemoteRevokeSuccess counts remote revokes the service accepted.
	MetricRemoteRevokeSuccess
	// MetricRemoteRevokeRejected counts remote revokes answered with success=false.
	MetricRemoteRevokeRejected
	// MetricRemoteRevokeError counts remote revokes that failed in transport.
	MetricRemoteRevokeError
	// MetricUpdateUserSuccess counts persisted user updates.
	MetricUpdateUserSuccess
	// MetricUpdateUserFailure counts user updates that failed or were refused.
	MetricUpdateUserFailure
	// MetricLoadLatency is the initial load latency histogram.
	MetricLoadLatency
	// MetricLoginLatency is the login persistence latency histogram.
	MetricLoginLatency
	// MetricLogoutLatency is the end-to-end logout latency histogram.
	MetricLogoutLatency
	// MetricUpdateUserLatency is the user update latency histogram.
	MetricUpdateUserLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBucketBounds are the inclusive upper bounds of the first
// histBucketCount-1 latency buckets; the last bucket is unbounded.
var HistogramBucketBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and optional latency histograms. A nil or
// disabled Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

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

// Observe records d in the latency histogram id. Non-latency IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isLatencyMetric(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of the counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, every latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 4),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isLatencyMetric(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricLoadLatency; id <= MetricUpdateUserLatency; id++ {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatencyMetric(id MetricID) bool {
	return id >= MetricLoadLatency && id <= MetricUpdateUserLatency
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBucketBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
