package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/port/cache"
	"github.com/Strob0t/TaskForge/internal/ratelimit"
	"github.com/Strob0t/TaskForge/internal/service"
)

// maxBodyBytes caps request body size for all JSON endpoints.
const maxBodyBytes = 1 << 20 // 1 MiB

// Handlers bundles the dispatch API dependencies.
type Handlers struct {
	Dispatcher *service.Dispatcher
	Limiter    *ratelimit.Limiter

	// Cache is an optional response cache for the read-heavy
	// performance-metrics endpoint.
	Cache      cache.Cache
	MetricsTTL time.Duration
}

// AgentView is the API representation of a registered agent.
type AgentView struct {
	ID       string         `json:"id"`
	Role     agent.Role     `json:"role"`
	Priority agent.Priority `json:"priority"`
	Status   agent.Status   `json:"status"`
	Metrics  agent.Metrics  `json:"metrics"`
}

// ListAgents returns all registered agents in registration order.
func (h *Handlers) ListAgents(w http.ResponseWriter, _ *http.Request) {
	agents := h.Dispatcher.Registry().All()
	views := make([]AgentView, 0, len(agents))
	for _, ag := range agents {
		views = append(views, AgentView{
			ID:       ag.ID(),
			Role:     ag.Role(),
			Priority: ag.Priority(),
			Status:   ag.Status(),
			Metrics:  ag.Metrics(),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// GetAgent returns one agent by ID.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	ag := h.Dispatcher.Registry().Get(id)
	if ag == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, AgentView{
		ID:       ag.ID(),
		Role:     ag.Role(),
		Priority: ag.Priority(),
		Status:   ag.Status(),
		Metrics:  ag.Metrics(),
	})
}

// UnregisterAgent removes an agent from the registry.
func (h *Handlers) UnregisterAgent(w http.ResponseWriter, r *http.Request) {
	h.Dispatcher.Registry().Unregister(urlParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ResetAgent returns an errored agent to idle. Agents flip to the
// error status on an agent-level fault and stay there until reset.
func (h *Handlers) ResetAgent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	ag := h.Dispatcher.Registry().Get(id)
	if ag == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if ag.Status() != agent.StatusError {
		writeError(w, http.StatusConflict, "agent is not in error status")
		return
	}
	ag.UpdateStatus(agent.StatusIdle)
	w.WriteHeader(http.StatusNoContent)
}

// sendMessageRequest is the body for direct messaging.
type sendMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// SendMessage delivers a message to one agent's mailbox.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sendMessageRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if !requireField(w, req.To, "to") {
		return
	}

	if err := h.Dispatcher.SendMessage(r.Context(), req.From, req.To, req.Content); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BroadcastMessage delivers a message to every registered agent.
func (h *Handlers) BroadcastMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sendMessageRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	h.Dispatcher.BroadcastFrom(r.Context(), req.From, req.Content)
	w.WriteHeader(http.StatusNoContent)
}

// History returns the execution history, optionally filtered by agent.
// With ?source=store it reads from the durable store instead of the
// in-memory log, serving results that predate the current process.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")

	if r.URL.Query().Get("source") == "store" {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		results, err := h.Dispatcher.StoredHistory(r.Context(), agentID, limit)
		switch {
		case errors.Is(err, service.ErrNoHistoryStore):
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "read history store")
			return
		}
		if results == nil {
			results = []execution.Result{}
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	if agentID != "" {
		writeJSON(w, http.StatusOK, h.Dispatcher.HistoryByAgent(agentID))
		return
	}
	writeJSON(w, http.StatusOK, h.Dispatcher.History())
}

// ClearHistory drops all recorded results.
func (h *Handlers) ClearHistory(w http.ResponseWriter, _ *http.Request) {
	h.Dispatcher.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}
