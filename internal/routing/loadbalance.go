package routing

import (
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/agentrunner"
)

// LoadBalancing selects the candidate that has handled the fewest
// tasks overall (completed + failed). Ties go to the
// earliest-registered agent.
type LoadBalancing struct{}

// Name returns the strategy identifier.
func (LoadBalancing) Name() string { return NameLoadBalance }

// Select picks the first candidate with the lowest total task count.
func (LoadBalancing) Select(candidates []agentrunner.Runner, _ *task.Task) agentrunner.Runner {
	var best agentrunner.Runner
	bestTotal := 0
	for _, c := range candidates {
		total := c.Metrics().TotalTasks()
		if best == nil || total < bestTotal {
			best = c
			bestTotal = total
		}
	}
	return best
}
