package routing

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

type stubAgent struct {
	*agentrunner.Base
}

func (s *stubAgent) Execute(_ context.Context, _ *task.Task) (*execution.Result, error) {
	return &execution.Result{Success: true}, nil
}

func newStub(id string, priority agent.Priority, handled int) *stubAgent {
	s := &stubAgent{Base: agentrunner.NewBase(id, agent.RoleDeveloper, priority)}
	for range handled {
		s.UpdateMetrics(execution.Result{Success: true, Duration: time.Millisecond, Timestamp: time.Now()})
	}
	return s
}

func TestPriorityBasedSelectsEarliestHighest(t *testing.T) {
	candidates := []agentrunner.Runner{
		newStub("a", agent.PriorityHigh, 0),
		newStub("b", agent.PriorityMedium, 0),
		newStub("c", agent.PriorityHigh, 0),
	}

	got := PriorityBased{}.Select(candidates, &task.Task{ID: "t1"})
	if got == nil || got.ID() != "a" {
		t.Fatalf("expected earliest-registered high-priority agent a, got %v", got)
	}
}

func TestPriorityBasedPrefersCritical(t *testing.T) {
	candidates := []agentrunner.Runner{
		newStub("a", agent.PriorityHigh, 0),
		newStub("b", agent.PriorityCritical, 0),
	}

	got := PriorityBased{}.Select(candidates, &task.Task{ID: "t1"})
	if got.ID() != "b" {
		t.Fatalf("expected critical agent b, got %s", got.ID())
	}
}

func TestLoadBalancingSelectsLeastLoaded(t *testing.T) {
	candidates := []agentrunner.Runner{
		newStub("a", agent.PriorityMedium, 5),
		newStub("b", agent.PriorityMedium, 2),
		newStub("c", agent.PriorityMedium, 8),
	}

	got := LoadBalancing{}.Select(candidates, &task.Task{ID: "t1"})
	if got == nil || got.ID() != "b" {
		t.Fatalf("expected least-loaded agent b, got %v", got)
	}
}

func TestLoadBalancingTieBreaksByRegistrationOrder(t *testing.T) {
	candidates := []agentrunner.Runner{
		newStub("a", agent.PriorityMedium, 3),
		newStub("b", agent.PriorityMedium, 3),
	}

	got := LoadBalancing{}.Select(candidates, &task.Task{ID: "t1"})
	if got.ID() != "a" {
		t.Fatalf("expected first-registered agent a on tie, got %s", got.ID())
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	if got := (PriorityBased{}).Select(nil, &task.Task{ID: "t1"}); got != nil {
		t.Error("priority: expected nil for empty candidates")
	}
	if got := (LoadBalancing{}).Select(nil, &task.Task{ID: "t1"}); got != nil {
		t.Error("load balancing: expected nil for empty candidates")
	}
}

func TestSelectDoesNotMutateCandidates(t *testing.T) {
	a := newStub("a", agent.PriorityHigh, 1)
	b := newStub("b", agent.PriorityLow, 0)
	candidates := []agentrunner.Runner{a, b}

	PriorityBased{}.Select(candidates, &task.Task{ID: "t1"})
	LoadBalancing{}.Select(candidates, &task.Task{ID: "t1"})

	if a.Status() != agent.StatusIdle || b.Status() != agent.StatusIdle {
		t.Error("selection must not change candidate status")
	}
	if a.Metrics().TotalTasks() != 1 || b.Metrics().TotalTasks() != 0 {
		t.Error("selection must not change candidate metrics")
	}
}

func TestNewResolvesStrategies(t *testing.T) {
	for _, name := range Available() {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("expected name %q, got %q", name, s.Name())
		}
	}

	if _, err := New("round_robin"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
