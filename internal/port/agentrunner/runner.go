// Package agentrunner defines the capability port the dispatcher expects
// from an agent. Concrete agents live outside this core; the dispatcher
// depends only on this interface and never on a concrete type.
package agentrunner

import (
	"context"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/message"
	"github.com/Strob0t/TaskForge/internal/domain/task"
)

// Runner is the port interface for a stateful worker that executes one
// task at a time.
//
// Status is read and written only by the dispatcher, which holds the
// agent busy for exactly the duration of one Execute call. Execute
// should report expected failures through the Result, not the error;
// a returned error (or a panic) is treated as an agent-level fault and
// flips the agent to StatusError until externally reset.
type Runner interface {
	// ID returns the unique identifier for this agent.
	ID() string

	// Role returns the agent's specialization.
	Role() agent.Role

	// Priority returns the agent's routing priority.
	Priority() agent.Priority

	// Status returns the agent's current status.
	Status() agent.Status

	// UpdateStatus sets the agent's status.
	UpdateStatus(s agent.Status)

	// Metrics returns a copy of the agent's accumulated metrics.
	Metrics() agent.Metrics

	// UpdateMetrics folds one execution outcome into the agent's metrics.
	UpdateMetrics(res execution.Result)

	// Execute runs a task and returns its result.
	Execute(ctx context.Context, t *task.Task) (*execution.Result, error)

	// ReceiveMessage delivers a message envelope to the agent.
	ReceiveMessage(msg message.Message) error
}
