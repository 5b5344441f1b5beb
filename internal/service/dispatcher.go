// Package service implements the dispatch coordination layer: routing
// tasks to agents, batch execution, inter-agent messaging, and
// execution-history accounting.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/TaskForge/internal/adapter/otel"
	"github.com/Strob0t/TaskForge/internal/adapter/ws"
	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
	"github.com/Strob0t/TaskForge/internal/port/broadcast"
	"github.com/Strob0t/TaskForge/internal/port/historystore"
	"github.com/Strob0t/TaskForge/internal/port/messagequeue"
	"github.com/Strob0t/TaskForge/internal/registry"
	"github.com/Strob0t/TaskForge/internal/resilience"
	"github.com/Strob0t/TaskForge/internal/routing"
)

// ErrNoAvailableAgents is the failure message recorded when no idle
// agent matches the task's constraints.
const ErrNoAvailableAgents = "No available agents to execute task"

// Dispatcher routes tasks to agents and records their outcomes.
//
// All registry and history mutation happens through the dispatcher; an
// agent's status is only ever written here, around its Execute call.
type Dispatcher struct {
	reg *registry.Registry

	// claimMu serializes agent selection with the idle-to-busy
	// transition so concurrent dispatches can never claim the same
	// agent. Execution itself runs outside the lock.
	claimMu sync.Mutex

	strategyMu sync.RWMutex
	strategy   routing.Strategy

	historyMu sync.RWMutex
	history   []execution.Result

	maxParallel int

	// Optional collaborators, nil-safe.
	hub     broadcast.Broadcaster
	store   historystore.Store
	metrics *otel.Metrics
	queue   messagequeue.Queue
	breaker *resilience.Breaker
}

// NewDispatcher creates a dispatcher over the given registry using the
// given routing strategy. maxParallel bounds concurrent executions in
// parallel batches; values < 1 mean unbounded.
func NewDispatcher(reg *registry.Registry, strategy routing.Strategy, maxParallel int) *Dispatcher {
	return &Dispatcher{
		reg:         reg,
		strategy:    strategy,
		maxParallel: maxParallel,
	}
}

// SetBroadcaster attaches a hub for real-time status events.
func (d *Dispatcher) SetBroadcaster(hub broadcast.Broadcaster) {
	d.hub = hub
}

// SetHistoryStore attaches a store that mirrors the execution history.
// Appends are best-effort; the in-memory log stays the source of truth.
func (d *Dispatcher) SetHistoryStore(store historystore.Store) {
	d.store = store
}

// SetMetrics attaches metric instruments for dispatch accounting.
func (d *Dispatcher) SetMetrics(m *otel.Metrics) {
	d.metrics = m
}

// SetStrategy swaps the routing strategy. The swap takes effect on the
// next ExecuteTask call and never affects in-flight executions.
func (d *Dispatcher) SetStrategy(s routing.Strategy) {
	d.strategyMu.Lock()
	defer d.strategyMu.Unlock()
	d.strategy = s
}

// Strategy returns the active routing strategy.
func (d *Dispatcher) Strategy() routing.Strategy {
	d.strategyMu.RLock()
	defer d.strategyMu.RUnlock()
	return d.strategy
}

// Registry returns the dispatcher's agent registry.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.reg
}

// ExecuteTask routes one task to an agent and runs it.
//
// When preferredAgentID names a registered idle agent it is selected
// directly, bypassing the routing strategy. Otherwise candidates are
// the idle agents (filtered by preferredRole when given) and the
// active strategy picks one. When nothing is selectable a synthetic
// failure result with AgentID "none" is returned and no agent state
// is touched.
func (d *Dispatcher) ExecuteTask(ctx context.Context, t *task.Task, preferredAgentID string, preferredRole agent.Role) execution.Result {
	ag := d.claimAgent(t, preferredAgentID, preferredRole)
	if ag == nil {
		res := execution.Result{
			TaskID:    t.ID,
			AgentID:   execution.NoAgent,
			Success:   false,
			Error:     ErrNoAvailableAgents,
			Timestamp: time.Now(),
		}
		d.record(ctx, res)
		return res
	}

	res := d.runAgent(ctx, ag, t)
	ag.UpdateMetrics(res)
	d.record(ctx, res)
	return res
}

// claimAgent resolves which agent runs the task and marks it busy
// inside one critical section. Without the lock two parallel dispatches
// could both observe the same agent as idle and double-book it.
// Returns nil when no agent is selectable.
func (d *Dispatcher) claimAgent(t *task.Task, preferredAgentID string, preferredRole agent.Role) agentrunner.Runner {
	d.claimMu.Lock()
	defer d.claimMu.Unlock()

	ag := d.selectAgent(t, preferredAgentID, preferredRole)
	if ag == nil {
		return nil
	}
	ag.UpdateStatus(agent.StatusBusy)
	return ag
}

// selectAgent resolves which agent runs the task, or nil when none can.
// Callers must hold claimMu.
func (d *Dispatcher) selectAgent(t *task.Task, preferredAgentID string, preferredRole agent.Role) agentrunner.Runner {
	if preferredAgentID != "" {
		if ag := d.reg.Get(preferredAgentID); ag != nil && ag.Status() == agent.StatusIdle {
			return ag
		}
		// Preferred agent busy or unknown: fall through to routing.
	}

	var candidates []agentrunner.Runner
	if preferredRole != "" {
		candidates = d.reg.AvailableByRole(preferredRole)
	} else {
		candidates = d.reg.Available()
	}
	return d.Strategy().Select(candidates, t)
}

// runAgent runs one Execute call on an agent already claimed busy by
// claimAgent. On success or an expected failure the agent returns to
// idle; a returned error or panic is an agent-level fault that leaves
// it in StatusError until externally reset.
func (d *Dispatcher) runAgent(ctx context.Context, ag agentrunner.Runner, t *task.Task) execution.Result {
	start := time.Now()

	d.broadcastAgentStatus(ctx, ag.ID(), agent.StatusBusy)
	if d.metrics != nil {
		d.metrics.TasksStarted.Add(ctx, 1)
	}

	res, err := safeExecute(ctx, ag, t)
	duration := time.Since(start)

	final := agent.StatusIdle
	if err != nil {
		final = agent.StatusError
		res = &execution.Result{
			Success: false,
			Error:   err.Error(),
		}
		slog.Error("agent execution fault", "agent_id", ag.ID(), "task_id", t.ID, "error", err)
	}
	ag.UpdateStatus(final)
	d.broadcastAgentStatus(ctx, ag.ID(), final)

	out := *res
	out.TaskID = t.ID
	out.AgentID = ag.ID()
	out.Duration = duration
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now()
	}
	return out
}

// safeExecute invokes the agent, converting a panic into an error so a
// misbehaving agent never crashes the dispatcher.
func safeExecute(ctx context.Context, ag agentrunner.Runner, t *task.Task) (res *execution.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()

	res, err = ag.Execute(ctx, t)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("agent %s returned no result", ag.ID())
	}
	return res, nil
}

func (d *Dispatcher) broadcastAgentStatus(ctx context.Context, agentID string, s agent.Status) {
	ev := ws.AgentStatusEvent{AgentID: agentID, Status: string(s)}
	if d.hub != nil {
		d.hub.BroadcastEvent(ctx, ws.EventAgentStatus, ev)
	}
	d.publish(ctx, messagequeue.SubjectAgentStatus, ev)
}
