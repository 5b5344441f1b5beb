// Package localagent provides a minimal in-process agent used for
// local development and API-driven registration. It echoes the task
// payload after an optional simulated work delay; payloads beginning
// with "fail:" produce an expected failure.
package localagent

import (
	"context"
	"strings"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

// failPrefix marks a payload that should produce an expected failure.
const failPrefix = "fail:"

// Agent is an in-process Runner implementation.
type Agent struct {
	*agentrunner.Base
	delay time.Duration
}

// New creates a local agent with the given identity.
func New(id string, role agent.Role, priority agent.Priority, delay time.Duration) *Agent {
	return &Agent{
		Base:  agentrunner.NewBase(id, role, priority),
		delay: delay,
	}
}

// Execute echoes the task payload after the configured delay.
func (a *Agent) Execute(ctx context.Context, t *task.Task) (*execution.Result, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if rest, ok := strings.CutPrefix(t.Payload, failPrefix); ok {
		return &execution.Result{
			Success:   false,
			Error:     rest,
			Timestamp: time.Now(),
		}, nil
	}

	return &execution.Result{
		Success:   true,
		Output:    t.Payload,
		Timestamp: time.Now(),
	}, nil
}
