package ratelimit

// Stats is a point-in-time snapshot of limiter state.
type Stats struct {
	ActiveRequests       int    `json:"active_requests"`
	QueueLength          int    `json:"queue_length"`
	RequestsInLastMinute int    `json:"requests_in_last_minute"`
	RequestsInLastHour   int    `json:"requests_in_last_hour"`
	TotalAdmitted        int64  `json:"total_admitted"`
	TotalQueued          int64  `json:"total_queued"`
	Config               Config `json:"config"`
}

// UsageStats reports window utilization as percentages of the
// configured limits.
type UsageStats struct {
	MinuteUsagePercent     float64 `json:"minute_usage_percent"`
	HourUsagePercent       float64 `json:"hour_usage_percent"`
	ConcurrentUsagePercent float64 `json:"concurrent_usage_percent"`
}

// Stats returns a snapshot of current limiter state.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())

	return Stats{
		ActiveRequests:       l.inFlight,
		QueueLength:          len(l.queue),
		RequestsInLastMinute: len(l.minuteStamps),
		RequestsInLastHour:   len(l.hourStamps),
		TotalAdmitted:        l.totalAdmitted,
		TotalQueued:          l.totalQueued,
		Config:               l.cfg,
	}
}

// UsageStats returns current window utilization.
func (l *Limiter) UsageStats() UsageStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())

	return UsageStats{
		MinuteUsagePercent:     percent(len(l.minuteStamps), l.cfg.MaxRequestsPerMinute),
		HourUsagePercent:       percent(len(l.hourStamps), l.cfg.MaxRequestsPerHour),
		ConcurrentUsagePercent: percent(l.inFlight, l.cfg.MaxConcurrent),
	}
}

func percent(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}

// UpdateConfig overlays non-zero fields of cfg onto the limiter's
// config. Zero fields keep their current value.
func (l *Limiter) UpdateConfig(cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.MaxRequestsPerHour > 0 {
		l.cfg.MaxRequestsPerHour = cfg.MaxRequestsPerHour
	}
	if cfg.MaxRequestsPerMinute > 0 {
		l.cfg.MaxRequestsPerMinute = cfg.MaxRequestsPerMinute
	}
	if cfg.MaxConcurrent > 0 {
		l.cfg.MaxConcurrent = cfg.MaxConcurrent
	}
}

// ResetStats clears window timestamps and cumulative counters.
// In-flight requests and the pending queue are untouched.
func (l *Limiter) ResetStats() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minuteStamps = nil
	l.hourStamps = nil
	l.totalAdmitted = 0
	l.totalQueued = 0
}
