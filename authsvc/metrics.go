package authsvc

import (
	"sync"
	"time"
)

// OperationMetrics summarizes one RPC kind.
type OperationMetrics struct {
	Total          uint64    `json:"total"`
	Succeeded      uint64    `json:"succeeded"`
	Failed         uint64    `json:"failed"`
	AverageLatency float64   `json:"average_latency_ms"`
	MinLatency     float64   `json:"min_latency_ms"`
	MaxLatency     float64   `json:"max_latency_ms"`
	PerSecond      float64   `json:"per_second"`
	LastOperation  time.Time `json:"last_operation"`
}

func (m *OperationMetrics) record(latency time.Duration, success bool, elapsed time.Duration) {
	latencyMs := float64(latency.Nanoseconds()) / 1e6

	m.Total++
	if success {
		m.Succeeded++
	} else {
		m.Failed++
	}

	if m.Total == 1 || latencyMs < m.MinLatency {
		m.MinLatency = latencyMs
	}
	if latencyMs > m.MaxLatency {
		m.MaxLatency = latencyMs
	}

	// Exponential moving average
	if m.Total == 1 {
		m.AverageLatency = latencyMs
	} else {
		m.AverageLatency = 0.9*m.AverageLatency + 0.1*latencyMs
	}

	m.LastOperation = time.Now()
	if s := elapsed.Seconds(); s > 0 {
		m.PerSecond = float64(m.Total) / s
	}
}

// Metrics is a point-in-time copy of the service counters.
type Metrics struct {
	Issue    OperationMetrics `json:"issue"`
	Verify   OperationMetrics `json:"verify"`
	Replayed uint64           `json:"replayed"`
	Uptime   time.Duration    `json:"uptime_ns"`
}

// Monitor tracks issue and verify outcomes and latencies. It is safe for
// concurrent use.
type Monitor struct {
	mu        sync.Mutex
	issue     OperationMetrics
	verify    OperationMetrics
	replayed  uint64
	startTime time.Time
}

// NewMonitor creates a monitor whose rates count from now.
func NewMonitor() *Monitor {
	return &Monitor{startTime: time.Now()}
}

// RecordIssue records one Issue call.
func (m *Monitor) RecordIssue(latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issue.record(latency, success, time.Since(m.startTime))
}

// RecordVerify records one Verify call; valid is the verification result.
func (m *Monitor) RecordVerify(latency time.Duration, valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verify.record(latency, valid, time.Since(m.startTime))
}

// RecordReplay counts a token rejected by the replay guard.
func (m *Monitor) RecordReplay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replayed++
}

// Snapshot returns a copy of the current metrics.
func (m *Monitor) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Issue:    m.issue,
		Verify:   m.verify,
		Replayed: m.replayed,
		Uptime:   time.Since(m.startTime),
	}
}
