package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/message"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
	"github.com/Strob0t/TaskForge/internal/registry"
	"github.com/Strob0t/TaskForge/internal/routing"
)

// scriptedAgent runs a caller-supplied execute function so tests can
// script success, expected failure, returned errors and panics.
type scriptedAgent struct {
	*agentrunner.Base
	execute func(ctx context.Context, t *task.Task) (*execution.Result, error)
	calls   atomic.Int64
}

func (s *scriptedAgent) Execute(ctx context.Context, t *task.Task) (*execution.Result, error) {
	s.calls.Add(1)
	if s.execute != nil {
		return s.execute(ctx, t)
	}
	return &execution.Result{Success: true, Output: "ok"}, nil
}

func newScripted(id string, role agent.Role, priority agent.Priority) *scriptedAgent {
	return &scriptedAgent{Base: agentrunner.NewBase(id, role, priority)}
}

func newTestDispatcher(t *testing.T, agents ...agentrunner.Runner) *Dispatcher {
	t.Helper()
	reg := registry.New()
	for _, ag := range agents {
		reg.Register(ag)
	}
	strategy, err := routing.New(routing.NamePriority)
	if err != nil {
		t.Fatalf("routing.New: %v", err)
	}
	return NewDispatcher(reg, strategy, 0)
}

func TestExecuteTaskRoutesAndRecords(t *testing.T) {
	high := newScripted("high", agent.RoleDeveloper, agent.PriorityHigh)
	low := newScripted("low", agent.RoleDeveloper, agent.PriorityLow)
	d := newTestDispatcher(t, low, high)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1", Title: "build"}, "", "")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.AgentID != "high" {
		t.Errorf("expected high-priority agent, got %s", res.AgentID)
	}
	if res.TaskID != "t1" {
		t.Errorf("expected task ID t1, got %s", res.TaskID)
	}
	if low.calls.Load() != 0 {
		t.Error("unselected agent must not be invoked")
	}
	if high.Status() != agent.StatusIdle {
		t.Errorf("agent should return to idle, got %s", high.Status())
	}
	if high.Metrics().TasksCompleted != 1 {
		t.Errorf("expected 1 completed task on agent metrics, got %d", high.Metrics().TasksCompleted)
	}
	if got := d.History(); len(got) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(got))
	}
}

func TestExecuteTaskNoCandidates(t *testing.T) {
	busy := newScripted("busy", agent.RoleDeveloper, agent.PriorityHigh)
	busy.UpdateStatus(agent.StatusBusy)
	d := newTestDispatcher(t, busy)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")

	if res.Success {
		t.Fatal("expected failure when no agent is available")
	}
	if res.AgentID != execution.NoAgent {
		t.Errorf("expected agent ID %q, got %q", execution.NoAgent, res.AgentID)
	}
	if res.Error != ErrNoAvailableAgents {
		t.Errorf("unexpected error message %q", res.Error)
	}
	if busy.calls.Load() != 0 {
		t.Error("busy agent must not be invoked")
	}
	if busy.Status() != agent.StatusBusy {
		t.Error("failed routing must not touch agent status")
	}
	if got := d.History(); len(got) != 1 {
		t.Fatalf("synthetic failure must still be recorded, got %d entries", len(got))
	}
}

func TestExecuteTaskRoleFilter(t *testing.T) {
	dev := newScripted("dev", agent.RoleDeveloper, agent.PriorityCritical)
	tester := newScripted("tester", agent.RoleTester, agent.PriorityLow)
	d := newTestDispatcher(t, dev, tester)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", agent.RoleTester)

	if res.AgentID != "tester" {
		t.Errorf("role filter must exclude the higher-priority developer, got %s", res.AgentID)
	}
}

func TestExecuteTaskPreferredAgent(t *testing.T) {
	a := newScripted("a", agent.RoleDeveloper, agent.PriorityCritical)
	b := newScripted("b", agent.RoleDeveloper, agent.PriorityLow)
	d := newTestDispatcher(t, a, b)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "b", "")
	if res.AgentID != "b" {
		t.Fatalf("preferred agent must bypass the strategy, got %s", res.AgentID)
	}

	// A busy preferred agent falls back to routing.
	b.UpdateStatus(agent.StatusBusy)
	res = d.ExecuteTask(context.Background(), &task.Task{ID: "t2"}, "b", "")
	if res.AgentID != "a" {
		t.Fatalf("busy preferred agent must fall back to routing, got %s", res.AgentID)
	}

	// An unknown preferred agent also falls back.
	res = d.ExecuteTask(context.Background(), &task.Task{ID: "t3"}, "ghost", "")
	if res.AgentID != "a" {
		t.Fatalf("unknown preferred agent must fall back to routing, got %s", res.AgentID)
	}
}

func TestExecuteTaskExpectedFailureLeavesAgentIdle(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		return &execution.Result{Success: false, Error: "lint failed"}, nil
	}
	d := newTestDispatcher(t, ag)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")

	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Error != "lint failed" {
		t.Errorf("unexpected error %q", res.Error)
	}
	if ag.Status() != agent.StatusIdle {
		t.Errorf("expected failure is not a fault; agent should be idle, got %s", ag.Status())
	}
}

func TestExecuteTaskErrorMarksAgentFaulted(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		return nil, errors.New("connection refused")
	}
	d := newTestDispatcher(t, ag)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")

	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Error != "connection refused" {
		t.Errorf("unexpected error %q", res.Error)
	}
	if ag.Status() != agent.StatusError {
		t.Errorf("returned error must leave agent faulted, got %s", ag.Status())
	}
}

func TestExecuteTaskPanicIsContained(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		panic("nil map write")
	}
	d := newTestDispatcher(t, ag)

	res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")

	if res.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Error, "agent panic") {
		t.Errorf("expected panic to surface in result error, got %q", res.Error)
	}
	if ag.Status() != agent.StatusError {
		t.Errorf("panic must leave agent faulted, got %s", ag.Status())
	}
}

func TestExecuteSequentialStopsOnFailure(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(_ context.Context, tk *task.Task) (*execution.Result, error) {
		if tk.ID == "t2" {
			return &execution.Result{Success: false, Error: "boom"}, nil
		}
		return &execution.Result{Success: true}, nil
	}
	d := newTestDispatcher(t, ag)

	tasks := []*task.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}
	results := d.ExecuteSequential(context.Background(), tasks)

	if len(results) != 2 {
		t.Fatalf("expected batch to stop after the failing task, got %d results", len(results))
	}
	if results[1].Success {
		t.Error("second result should be the failure")
	}
}

func TestExecuteSequentialContinueOnError(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(_ context.Context, tk *task.Task) (*execution.Result, error) {
		if tk.ID == "t2" {
			return &execution.Result{Success: false, Error: "boom"}, nil
		}
		return &execution.Result{Success: true}, nil
	}
	d := newTestDispatcher(t, ag)

	tasks := []*task.Task{
		{ID: "t1"},
		{ID: "t2", Metadata: task.Metadata{ContinueOnError: true}},
		{ID: "t3"},
	}
	results := d.ExecuteSequential(context.Background(), tasks)

	if len(results) != 3 {
		t.Fatalf("expected the batch to run through, got %d results", len(results))
	}
	if results[1].Success || !results[2].Success {
		t.Error("only the second task should have failed")
	}
}

func TestExecuteParallelPreservesInputOrder(t *testing.T) {
	agents := make([]agentrunner.Runner, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		agents[i] = newScripted(id, agent.RoleDeveloper, agent.PriorityMedium)
	}
	d := newTestDispatcher(t, agents...)

	tasks := []*task.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}, {ID: "t4"}}
	results := d.ExecuteParallel(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	for i, tk := range tasks {
		if results[i].TaskID != tk.ID {
			t.Errorf("result %d: expected task %s, got %s", i, tk.ID, results[i].TaskID)
		}
	}
}

func TestExecuteParallelMoreTasksThanAgents(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		time.Sleep(5 * time.Millisecond)
		return &execution.Result{Success: true}, nil
	}
	d := newTestDispatcher(t, ag)

	results := d.ExecuteParallel(context.Background(), []*task.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}})

	// With one agent some tasks find it busy and fail; the batch itself
	// still yields one result per task.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	var succeeded int
	for _, res := range results {
		if res.Success {
			succeeded++
		} else if res.Error != ErrNoAvailableAgents {
			t.Errorf("unexpected failure %q", res.Error)
		}
	}
	if succeeded < 1 {
		t.Error("at least one task should have landed on the agent")
	}
}

// slowStrategy delays Select to widen the gap between observing an
// agent idle and marking it busy.
type slowStrategy struct {
	inner routing.Strategy
	delay time.Duration
}

func (s slowStrategy) Name() string { return s.inner.Name() }

func (s slowStrategy) Select(candidates []agentrunner.Runner, t *task.Task) agentrunner.Runner {
	time.Sleep(s.delay)
	return s.inner.Select(candidates, t)
}

func TestExecuteParallelNeverDoubleBooksAgent(t *testing.T) {
	ag := newScripted("solo", agent.RoleDeveloper, agent.PriorityMedium)
	var inFlight, maxInFlight atomic.Int32
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return &execution.Result{Success: true}, nil
	}
	d := newTestDispatcher(t, ag)

	base, err := routing.New(routing.NamePriority)
	if err != nil {
		t.Fatalf("routing.New: %v", err)
	}
	d.SetStrategy(slowStrategy{inner: base, delay: 2 * time.Millisecond})

	tasks := []*task.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}, {ID: "t4"}}
	results := d.ExecuteParallel(context.Background(), tasks)

	if got := maxInFlight.Load(); got > 1 {
		t.Fatalf("agent ran %d tasks concurrently, want at most 1", got)
	}
	var succeeded int64
	for _, res := range results {
		if res.Success {
			succeeded++
		} else if res.Error != ErrNoAvailableAgents {
			t.Errorf("unexpected failure %q", res.Error)
		}
	}
	if succeeded != ag.calls.Load() {
		t.Errorf("successes %d do not match agent invocations %d", succeeded, ag.calls.Load())
	}
	if succeeded < 1 {
		t.Error("at least one task should have landed on the agent")
	}
}

func TestSendMessage(t *testing.T) {
	a := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	b := newScripted("b", agent.RoleTester, agent.PriorityMedium)
	d := newTestDispatcher(t, a, b)

	if err := d.SendMessage(context.Background(), "a", "b", "ping"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	inbox := b.Inbox()
	if len(inbox) != 1 {
		t.Fatalf("expected 1 message, got %d", len(inbox))
	}
	if inbox[0].From != "a" || inbox[0].Content != "ping" {
		t.Errorf("unexpected envelope %+v", inbox[0])
	}
	if len(a.Inbox()) != 0 {
		t.Error("sender must not receive its own direct message")
	}
}

func TestSendMessageUnknownTarget(t *testing.T) {
	d := newTestDispatcher(t, newScripted("a", agent.RoleDeveloper, agent.PriorityMedium))

	err := d.SendMessage(context.Background(), "a", "ghost", "ping")
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
	if !strings.Contains(err.Error(), "ghost not found") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestBroadcastReachesAllStatuses(t *testing.T) {
	a := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	b := newScripted("b", agent.RoleTester, agent.PriorityMedium)
	b.UpdateStatus(agent.StatusBusy)
	c := newScripted("c", agent.RoleOperations, agent.PriorityMedium)
	c.UpdateStatus(agent.StatusError)
	d := newTestDispatcher(t, a, b, c)

	d.Broadcast(context.Background(), message.New("system", "", "shutdown at noon"))

	for _, ag := range []*scriptedAgent{a, b, c} {
		if len(ag.Inbox()) != 1 {
			t.Errorf("agent %s: expected 1 message, got %d", ag.ID(), len(ag.Inbox()))
		}
	}
}

func TestHistoryIsDefensiveCopy(t *testing.T) {
	d := newTestDispatcher(t, newScripted("a", agent.RoleDeveloper, agent.PriorityMedium))
	d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")

	got := d.History()
	got[0].TaskID = "mutated"

	if d.History()[0].TaskID != "t1" {
		t.Error("mutating the returned slice must not affect the history")
	}
}

func TestHistoryByAgentAndClear(t *testing.T) {
	a := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	b := newScripted("b", agent.RoleTester, agent.PriorityMedium)
	d := newTestDispatcher(t, a, b)

	d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "a", "")
	d.ExecuteTask(context.Background(), &task.Task{ID: "t2"}, "b", "")
	d.ExecuteTask(context.Background(), &task.Task{ID: "t3"}, "a", "")

	if got := d.HistoryByAgent("a"); len(got) != 2 {
		t.Errorf("expected 2 entries for agent a, got %d", len(got))
	}
	if got := d.HistoryByAgent("ghost"); len(got) != 0 {
		t.Errorf("expected no entries for unknown agent, got %d", len(got))
	}

	d.ClearHistory()
	if got := d.History(); len(got) != 0 {
		t.Errorf("expected empty history after clear, got %d entries", len(got))
	}
}

// fakeStore is an in-memory stand-in for the durable history store.
type fakeStore struct {
	mu      sync.Mutex
	results []execution.Result
}

func (s *fakeStore) Append(_ context.Context, res execution.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

func (s *fakeStore) ListByAgent(_ context.Context, agentID string, limit int) ([]execution.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []execution.Result
	for _, res := range s.results {
		if res.AgentID == agentID {
			out = append(out, res)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeStore) List(_ context.Context, limit int) ([]execution.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]execution.Result, len(s.results))
	copy(out, s.results)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func TestStoredHistorySurvivesClear(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	d := newTestDispatcher(t, ag)
	store := &fakeStore{}
	d.SetHistoryStore(store)

	d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", "")
	d.ExecuteTask(context.Background(), &task.Task{ID: "t2"}, "", "")
	d.ClearHistory()

	if got := d.History(); len(got) != 0 {
		t.Fatalf("expected empty in-memory history, got %d entries", len(got))
	}

	stored, err := d.StoredHistory(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("StoredHistory: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored entries, got %d", len(stored))
	}

	byAgent, err := d.StoredHistory(context.Background(), "a", 1)
	if err != nil {
		t.Fatalf("StoredHistory by agent: %v", err)
	}
	if len(byAgent) != 1 || byAgent[0].TaskID != "t2" {
		t.Errorf("expected latest entry t2, got %+v", byAgent)
	}
}

func TestStoredHistoryWithoutStore(t *testing.T) {
	d := newTestDispatcher(t)

	if _, err := d.StoredHistory(context.Background(), "", 0); !errors.Is(err, ErrNoHistoryStore) {
		t.Fatalf("expected ErrNoHistoryStore, got %v", err)
	}
}

func TestPerformanceMetrics(t *testing.T) {
	ag := newScripted("a", agent.RoleDeveloper, agent.PriorityMedium)
	var n int
	ag.execute = func(context.Context, *task.Task) (*execution.Result, error) {
		n++
		if n == 3 {
			return &execution.Result{Success: false, Error: "boom"}, nil
		}
		return &execution.Result{Success: true}, nil
	}
	d := newTestDispatcher(t, ag)

	for i := range 3 {
		d.ExecuteTask(context.Background(), &task.Task{ID: "t" + string(rune('1'+i))}, "", "")
	}

	report := d.PerformanceMetrics()
	if report.TotalTasks != 3 {
		t.Fatalf("expected 3 total tasks, got %d", report.TotalTasks)
	}
	if report.SuccessRate < 66.6 || report.SuccessRate > 66.7 {
		t.Errorf("expected success rate near 66.67, got %f", report.SuccessRate)
	}
	ap, ok := report.Agents["a"]
	if !ok {
		t.Fatal("expected per-agent entry for a")
	}
	if ap.TotalTasks != 3 || ap.TasksCompleted != 2 {
		t.Errorf("unexpected per-agent breakdown %+v", ap)
	}
}

func TestPerformanceMetricsEmptyHistory(t *testing.T) {
	d := newTestDispatcher(t)

	report := d.PerformanceMetrics()
	if report.TotalTasks != 0 || report.SuccessRate != 0 || report.AverageDuration != 0 {
		t.Errorf("expected zero-valued report, got %+v", report)
	}
	if report.Agents == nil || len(report.Agents) != 0 {
		t.Errorf("expected empty agents map, got %v", report.Agents)
	}
}

func TestSetStrategySwaps(t *testing.T) {
	busyCount := newScripted("busycount", agent.RoleDeveloper, agent.PriorityLow)
	fresh := newScripted("fresh", agent.RoleDeveloper, agent.PriorityHigh)
	d := newTestDispatcher(t, busyCount, fresh)

	// Give the low-priority agent a task backlog so the two strategies
	// disagree about who goes next.
	for range 3 {
		busyCount.UpdateMetrics(execution.Result{Success: true, Timestamp: time.Now()})
	}

	if res := d.ExecuteTask(context.Background(), &task.Task{ID: "t1"}, "", ""); res.AgentID != "fresh" {
		t.Fatalf("priority strategy should pick fresh, got %s", res.AgentID)
	}

	lb, err := routing.New(routing.NameLoadBalance)
	if err != nil {
		t.Fatalf("routing.New: %v", err)
	}
	d.SetStrategy(lb)
	if d.Strategy().Name() != routing.NameLoadBalance {
		t.Fatalf("strategy not swapped, got %s", d.Strategy().Name())
	}
}
