package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Strob0t/TaskForge/internal/ratelimit"
)

// perfMetricsCacheKey is the response-cache key for PerformanceMetrics.
const perfMetricsCacheKey = "metrics:performance"

// RateLimitStats returns a snapshot of limiter state.
func (h *Handlers) RateLimitStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Limiter.Stats())
}

// RateLimitUsage returns window utilization percentages.
func (h *Handlers) RateLimitUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Limiter.UsageStats())
}

// RateLimitCheck reports whether a request would be admitted right now.
func (h *Handlers) RateLimitCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Limiter.CanExecuteImmediately())
}

// UpdateRateLimitConfig overlays non-zero limit fields at runtime.
func (h *Handlers) UpdateRateLimitConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := readJSON[ratelimit.Config](w, r, maxBodyBytes)
	if !ok {
		return
	}
	h.Limiter.UpdateConfig(cfg)
	writeJSON(w, http.StatusOK, h.Limiter.Stats().Config)
}

// ClearRateLimitQueue rejects every pending request.
func (h *Handlers) ClearRateLimitQueue(w http.ResponseWriter, _ *http.Request) {
	cleared := h.Limiter.ClearQueue()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// ResetRateLimitStats clears window timestamps and counters.
func (h *Handlers) ResetRateLimitStats(w http.ResponseWriter, _ *http.Request) {
	h.Limiter.ResetStats()
	w.WriteHeader(http.StatusNoContent)
}

// PerformanceMetrics returns the aggregated execution report. The
// response is served from the short-TTL cache when one is attached;
// the report walks the full history on every miss.
func (h *Handlers) PerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Cache != nil {
		if data, ok, err := h.Cache.Get(ctx, perfMetricsCacheKey); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
	}

	report := h.Dispatcher.PerformanceMetrics()

	if h.Cache != nil {
		if data, err := json.Marshal(report); err == nil {
			if err := h.Cache.Set(ctx, perfMetricsCacheKey, data, h.MetricsTTL); err != nil {
				slog.Debug("metrics cache set failed", "error", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, report)
}
