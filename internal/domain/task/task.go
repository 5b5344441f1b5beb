// Package task defines the Task domain entity.
package task

import "github.com/Strob0t/TaskForge/internal/domain/agent"

// Task represents an opaque unit of work submitted to the dispatcher.
// The dispatcher never interprets Payload; only the executing agent does.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Role     agent.Role `json:"role,omitempty"` // optional routing hint
	Payload  string     `json:"payload"`
	Metadata Metadata   `json:"metadata,omitempty"`
}

// Metadata carries per-task execution hints.
type Metadata struct {
	// ContinueOnError lets a sequential batch keep going past a
	// failure of this specific task. Evaluated per task, not globally.
	ContinueOnError bool `json:"continue_on_error,omitempty"`
}

// CreateRequest holds the fields needed to submit a new task.
type CreateRequest struct {
	Title    string   `json:"title"`
	Role     string   `json:"role,omitempty"`
	Payload  string   `json:"payload"`
	Metadata Metadata `json:"metadata,omitempty"`
}
