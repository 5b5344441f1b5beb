// Package agent defines the agent domain types shared across the dispatcher.
package agent

import "time"

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusBusy    Status = "busy"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// Role defines the specialization of an agent.
type Role string

const (
	RoleDeveloper  Role = "developer"
	RoleTester     Role = "tester"
	RoleProduct    Role = "product"
	RoleOperations Role = "operations"
	RoleCustom     Role = "custom"
)

// ValidRole reports whether r is a known agent role.
func ValidRole(r string) bool {
	switch Role(r) {
	case RoleDeveloper, RoleTester, RoleProduct, RoleOperations, RoleCustom:
		return true
	}
	return false
}

// Priority orders agents for priority-based routing.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the numeric weight of a priority. Higher wins.
// Unknown priorities rank below low so a malformed agent never
// jumps the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Metrics accumulates per-agent execution accounting.
// Derived fields are kept consistent by Record.
type Metrics struct {
	TasksCompleted       int           `json:"tasks_completed"`
	TasksFailed          int           `json:"tasks_failed"`
	TotalExecutionTime   time.Duration `json:"total_execution_time"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	SuccessRate          float64       `json:"success_rate"`
	LastActive           time.Time     `json:"last_active"`
}

// Record folds one execution outcome into the metrics.
func (m *Metrics) Record(success bool, duration time.Duration, at time.Time) {
	if success {
		m.TasksCompleted++
	} else {
		m.TasksFailed++
	}
	m.TotalExecutionTime += duration

	total := m.TasksCompleted + m.TasksFailed
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(total)
	m.SuccessRate = float64(m.TasksCompleted) / float64(total) * 100
	m.LastActive = at
}

// TotalTasks returns the number of tasks this agent has handled,
// successful or not. Load-balancing routing orders by this.
func (m Metrics) TotalTasks() int {
	return m.TasksCompleted + m.TasksFailed
}
