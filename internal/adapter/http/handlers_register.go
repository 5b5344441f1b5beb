package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/TaskForge/internal/adapter/localagent"
	"github.com/Strob0t/TaskForge/internal/domain/agent"
)

// registerAgentRequest is the body for agent registration.
type registerAgentRequest struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Priority string `json:"priority"`
	DelayMs  int64  `json:"delay_ms,omitempty"`
}

// RegisterAgent registers a local in-process agent. Registering an
// existing ID overwrites the prior entry but keeps its registration
// slot, so routing tie-breaks are stable across re-registration.
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[registerAgentRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if !requireField(w, req.ID, "id") {
		return
	}
	if !agent.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "unknown role "+req.Role)
		return
	}
	priority := agent.Priority(req.Priority)
	if priority == "" {
		priority = agent.PriorityMedium
	}
	if priority.Rank() == 0 {
		writeError(w, http.StatusBadRequest, "unknown priority "+req.Priority)
		return
	}

	ag := localagent.New(req.ID, agent.Role(req.Role), priority,
		time.Duration(req.DelayMs)*time.Millisecond)
	h.Dispatcher.Registry().Register(ag)

	writeJSON(w, http.StatusCreated, AgentView{
		ID:       ag.ID(),
		Role:     ag.Role(),
		Priority: ag.Priority(),
		Status:   ag.Status(),
	})
}
