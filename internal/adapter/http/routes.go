package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Agents
		r.Post("/agents", h.RegisterAgent)
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{id}", h.GetAgent)
		r.Delete("/agents/{id}", h.UnregisterAgent)
		r.Post("/agents/{id}/reset", h.ResetAgent)

		// Task execution
		r.Post("/tasks/execute", h.ExecuteTask)
		r.Post("/tasks/parallel", h.ExecuteParallel)
		r.Post("/tasks/sequential", h.ExecuteSequential)

		// Routing strategy
		r.Get("/strategy", h.GetStrategy)
		r.Put("/strategy", h.SetStrategy)

		// Messaging
		r.Post("/messages", h.SendMessage)
		r.Post("/messages/broadcast", h.BroadcastMessage)

		// History and metrics
		r.Get("/history", h.History)
		r.Delete("/history", h.ClearHistory)
		r.Get("/metrics/performance", h.PerformanceMetrics)

		// Rate limiter
		r.Get("/ratelimit/stats", h.RateLimitStats)
		r.Get("/ratelimit/usage", h.RateLimitUsage)
		r.Get("/ratelimit/check", h.RateLimitCheck)
		r.Put("/ratelimit/config", h.UpdateRateLimitConfig)
		r.Post("/ratelimit/queue/clear", h.ClearRateLimitQueue)
		r.Post("/ratelimit/stats/reset", h.ResetRateLimitStats)
	})
}
