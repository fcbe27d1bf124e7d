package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks consume-attempt statistics across limiters
type Metrics struct {
	totalAttempts atomic.Int64
	admitted      atomic.Int64
	rejected      atomic.Int64
	lockFailures  atomic.Int64

	// Per-limiter stats
	mu           sync.RWMutex
	limiterStats map[string]*LimiterStats
	startTime    time.Time
}

// LimiterStats tracks statistics for a single limiter id
type LimiterStats struct {
	ID             string    `json:"id"`
	TotalAttempts  int64     `json:"total_attempts"`
	Admitted       int64     `json:"admitted"`
	Rejected       int64     `json:"rejected"`
	LockFailures   int64     `json:"lock_failures"`
	FirstAttemptAt time.Time `json:"first_attempt_at"`
	LastAttemptAt  time.Time `json:"last_attempt_at"`
}

// New creates a new metrics tracker
func New() *Metrics {
	return &Metrics{
		limiterStats: make(map[string]*LimiterStats),
		startTime:    time.Now(),
	}
}

// RecordAttempt records the outcome of one consume attempt
func (m *Metrics) RecordAttempt(id string, admitted bool) {
	m.totalAttempts.Add(1)

	if admitted {
		m.admitted.Add(1)
	} else {
		m.rejected.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(id)
	stats.TotalAttempts++
	if admitted {
		stats.Admitted++
	} else {
		stats.Rejected++
	}
	stats.LastAttemptAt = time.Now()
}

// RecordLockFailure records a failed lock acquisition for a limiter
func (m *Metrics) RecordLockFailure(id string) {
	m.lockFailures.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(id)
	stats.LockFailures++
	stats.LastAttemptAt = time.Now()
}

// statsLocked returns the stats entry for id, creating it if needed.
// MUST be called with m.mu locked.
func (m *Metrics) statsLocked(id string) *LimiterStats {
	stats, exists := m.limiterStats[id]
	if !exists {
		stats = &LimiterStats{
			ID:             id,
			FirstAttemptAt: time.Now(),
		}
		m.limiterStats[id] = stats
	}
	return stats
}

// GetSnapshot returns a point-in-time view of current metrics
func (m *Metrics) GetSnapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Copy per-limiter stats
	limiters := make([]*LimiterStats, 0, len(m.limiterStats))
	for _, stats := range m.limiterStats {
		limiters = append(limiters, &LimiterStats{
			ID:             stats.ID,
			TotalAttempts:  stats.TotalAttempts,
			Admitted:       stats.Admitted,
			Rejected:       stats.Rejected,
			LockFailures:   stats.LockFailures,
			FirstAttemptAt: stats.FirstAttemptAt,
			LastAttemptAt:  stats.LastAttemptAt,
		})
	}

	sortByTotalAttempts(limiters)

	uptime := time.Since(m.startTime)

	return &Snapshot{
		TotalAttempts: m.totalAttempts.Load(),
		Admitted:      m.admitted.Load(),
		Rejected:      m.rejected.Load(),
		LockFailures:  m.lockFailures.Load(),
		Limiters:      limiters,
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     m.startTime,
	}
}

// Snapshot represents a point-in-time view of metrics
type Snapshot struct {
	TotalAttempts int64           `json:"total_attempts"`
	Admitted      int64           `json:"admitted"`
	Rejected      int64           `json:"rejected"`
	LockFailures  int64           `json:"lock_failures"`
	Limiters      []*LimiterStats `json:"limiters"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     time.Time       `json:"start_time"`
}

// Helper to sort limiters by total attempts
func sortByTotalAttempts(limiters []*LimiterStats) {
	for i := 0; i < len(limiters)-1; i++ {
		for j := i + 1; j < len(limiters); j++ {
			if limiters[j].TotalAttempts > limiters[i].TotalAttempts {
				limiters[i], limiters[j] = limiters[j], limiters[i]
			}
		}
	}
}
