// Package monitoring provides request metrics and structured logging
// middleware for the inference service.
package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics. Counters are atomic; the response time
// window is bounded and mutex-guarded.
type Metrics struct {
	RequestCount    int64
	ErrorCount      int64
	PredictionCount int64
	BulkRowCount    int64
	StartTime       time.Time

	responseTimes []time.Duration
	responseMu    sync.RWMutex

	countByStatus map[int]int64
	statusMu      sync.RWMutex
}

const responseWindow = 1000

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, responseWindow),
		countByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementPredictions adds served prediction rows (1 for single, batch
// size for bulk).
func (m *Metrics) IncrementPredictions(rows int64) {
	atomic.AddInt64(&m.PredictionCount, 1)
	atomic.AddInt64(&m.BulkRowCount, rows)
}

// RecordResponseTime stores a response time in the bounded window.
func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.responseMu.Lock()
	defer m.responseMu.Unlock()
	if len(m.responseTimes) >= responseWindow {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimes = append(m.responseTimes, d)
}

// RecordRequestByStatus tracks request counts per HTTP status code.
func (m *Metrics) RecordRequestByStatus(status int) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.countByStatus[status]++
}

func (m *Metrics) percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// GetStats returns a serializable snapshot of all metrics.
func (m *Metrics) GetStats() map[string]interface{} {
	m.responseMu.RLock()
	sorted := append([]time.Duration(nil), m.responseTimes...)
	m.responseMu.RUnlock()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	m.statusMu.RLock()
	byStatus := make(map[int]int64, len(m.countByStatus))
	for k, v := range m.countByStatus {
		byStatus[k] = v
	}
	m.statusMu.RUnlock()

	return map[string]interface{}{
		"request_count":        atomic.LoadInt64(&m.RequestCount),
		"error_count":          atomic.LoadInt64(&m.ErrorCount),
		"prediction_count":     atomic.LoadInt64(&m.PredictionCount),
		"bulk_row_count":       atomic.LoadInt64(&m.BulkRowCount),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"requests_by_status":   byStatus,
		"response_time_p50_ms": m.percentile(sorted, 0.50).Milliseconds(),
		"response_time_p95_ms": m.percentile(sorted, 0.95).Milliseconds(),
		"response_time_p99_ms": m.percentile(sorted, 0.99).Milliseconds(),
	}
}
