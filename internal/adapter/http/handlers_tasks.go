package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/ratelimit"
	"github.com/Strob0t/TaskForge/internal/routing"
)

// executeTaskRequest is the body for single-task execution.
type executeTaskRequest struct {
	Task             task.CreateRequest `json:"task"`
	PreferredAgentID string             `json:"preferred_agent_id,omitempty"`
	PreferredRole    string             `json:"preferred_role,omitempty"`
	Priority         int                `json:"priority,omitempty"`
	TimeoutMs        int64              `json:"timeout_ms,omitempty"`
}

// batchRequest is the body for parallel and sequential execution.
type batchRequest struct {
	Tasks     []task.CreateRequest `json:"tasks"`
	Priority  int                  `json:"priority,omitempty"`
	TimeoutMs int64                `json:"timeout_ms,omitempty"`
}

func newTask(req task.CreateRequest) *task.Task {
	return &task.Task{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Role:     agent.Role(req.Role),
		Payload:  req.Payload,
		Metadata: req.Metadata,
	}
}

// ExecuteTask routes one task through admission control to an agent.
func (h *Handlers) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[executeTaskRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if req.PreferredRole != "" && !agent.ValidRole(req.PreferredRole) {
		writeError(w, http.StatusBadRequest, "unknown role "+req.PreferredRole)
		return
	}

	t := newTask(req.Task)
	var res execution.Result
	err := h.Limiter.Execute(r.Context(), limiterOptions(req.Priority, req.TimeoutMs),
		func(ctx context.Context) error {
			res = h.Dispatcher.ExecuteTask(ctx, t, req.PreferredAgentID, agent.Role(req.PreferredRole))
			return nil
		})
	if err != nil {
		writeLimiterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExecuteParallel runs a batch concurrently and returns results in
// input order.
func (h *Handlers) ExecuteParallel(w http.ResponseWriter, r *http.Request) {
	h.executeBatch(w, r, h.Dispatcher.ExecuteParallel)
}

// ExecuteSequential runs a batch one task at a time.
func (h *Handlers) ExecuteSequential(w http.ResponseWriter, r *http.Request) {
	h.executeBatch(w, r, h.Dispatcher.ExecuteSequential)
}

func (h *Handlers) executeBatch(w http.ResponseWriter, r *http.Request, run func(context.Context, []*task.Task) []execution.Result) {
	req, ok := readJSON[batchRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if len(req.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "tasks is required")
		return
	}

	tasks := make([]*task.Task, len(req.Tasks))
	for i, tr := range req.Tasks {
		tasks[i] = newTask(tr)
	}

	var results []execution.Result
	err := h.Limiter.Execute(r.Context(), limiterOptions(req.Priority, req.TimeoutMs),
		func(ctx context.Context) error {
			results = run(ctx, tasks)
			return nil
		})
	if err != nil {
		writeLimiterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// setStrategyRequest is the body for strategy swaps.
type setStrategyRequest struct {
	Strategy string `json:"strategy"`
}

// SetStrategy swaps the active routing strategy at runtime. The swap
// takes effect on the next task execution.
func (h *Handlers) SetStrategy(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[setStrategyRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	s, err := routing.New(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Dispatcher.SetStrategy(s)
	writeJSON(w, http.StatusOK, map[string]string{"strategy": s.Name()})
}

// GetStrategy reports the active routing strategy.
func (h *Handlers) GetStrategy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"strategy":  h.Dispatcher.Strategy().Name(),
		"available": routing.Available(),
	})
}

func limiterOptions(priority int, timeoutMs int64) ratelimit.Options {
	return ratelimit.Options{
		Priority: priority,
		Timeout:  time.Duration(timeoutMs) * time.Millisecond,
	}
}

func writeLimiterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrRequestTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, ratelimit.ErrQueueCleared):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}
