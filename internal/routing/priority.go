package routing

import (
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

// PriorityBased selects the highest-priority candidate
// (critical > high > medium > low). Ties go to the
// earliest-registered agent.
type PriorityBased struct{}

// Name returns the strategy identifier.
func (PriorityBased) Name() string { return NamePriority }

// Select picks the first candidate with the highest priority rank.
func (PriorityBased) Select(candidates []agentrunner.Runner, _ *task.Task) agentrunner.Runner {
	var best agentrunner.Runner
	for _, c := range candidates {
		if best == nil || c.Priority().Rank() > best.Priority().Rank() {
			best = c
		}
	}
	return best
}
