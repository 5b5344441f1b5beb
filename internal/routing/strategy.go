// Package routing provides pluggable agent-selection policies.
//
// A Strategy is a pure function over a candidate list: it must not
// mutate candidate status or any other agent state. Candidates arrive
// in registration order, which every bundled strategy uses as its
// stable tie-break.
package routing

import (
	"fmt"

	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

// Strategy selects which candidate agent runs a given task.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Select picks one candidate for the task, or nil when candidates
	// is empty. Select must be side-effect free.
	Select(candidates []agentrunner.Runner, t *task.Task) agentrunner.Runner
}

// Strategy names resolvable via New.
const (
	NamePriority    = "priority"
	NameLoadBalance = "load_balance"
)

// New resolves a strategy by name.
func New(name string) (Strategy, error) {
	switch name {
	case NamePriority:
		return PriorityBased{}, nil
	case NameLoadBalance:
		return LoadBalancing{}, nil
	}
	return nil, fmt.Errorf("routing: unknown strategy %q", name)
}

// Available returns the names of all bundled strategies.
func Available() []string {
	return []string{NamePriority, NameLoadBalance}
}
