package localagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/task"
)

func TestExecuteEchoesPayload(t *testing.T) {
	ag := New("dev-1", agent.RoleDeveloper, agent.PriorityMedium, 0)

	res, err := ag.Execute(context.Background(), &task.Task{ID: "t1", Payload: "hello"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.Output != "hello" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExecuteFailPrefix(t *testing.T) {
	ag := New("dev-1", agent.RoleDeveloper, agent.PriorityMedium, 0)

	res, err := ag.Execute(context.Background(), &task.Task{ID: "t1", Payload: "fail:disk full"})
	if err != nil {
		t.Fatalf("expected an in-band failure, not an error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Error != "disk full" {
		t.Errorf("expected the prefix stripped, got %q", res.Error)
	}
}

func TestExecuteHonorsContextDuringDelay(t *testing.T) {
	ag := New("dev-1", agent.RoleDeveloper, agent.PriorityMedium, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ag.Execute(ctx, &task.Task{ID: "t1", Payload: "slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
