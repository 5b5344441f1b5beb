// Package execution defines the immutable outcome record of one task run.
package execution

import "time"

// NoAgent is the AgentID recorded when no agent could be selected.
const NoAgent = "none"

// Result holds the outcome of a single task execution.
// A Result is immutable once produced; the dispatcher's history is an
// append-only log of these records.
type Result struct {
	TaskID    string        `json:"task_id"`
	AgentID   string        `json:"agent_id"`
	Success   bool          `json:"success"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}
