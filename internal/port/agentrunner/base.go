package agentrunner

import (
	"sync"

	"github.com/Strob0t/TaskForge/internal/domain/agent"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/message"
)

// Base provides the status, metrics and mailbox bookkeeping half of the
// Runner contract. Concrete agents embed it and implement Execute.
type Base struct {
	id       string
	role     agent.Role
	priority agent.Priority

	mu      sync.RWMutex
	status  agent.Status
	metrics agent.Metrics
	inbox   []message.Message
}

// NewBase creates agent bookkeeping with status idle.
func NewBase(id string, role agent.Role, priority agent.Priority) *Base {
	return &Base{
		id:       id,
		role:     role,
		priority: priority,
		status:   agent.StatusIdle,
	}
}

// ID returns the agent's unique identifier.
func (b *Base) ID() string { return b.id }

// Role returns the agent's specialization.
func (b *Base) Role() agent.Role { return b.role }

// Priority returns the agent's routing priority.
func (b *Base) Priority() agent.Priority { return b.priority }

// Status returns the agent's current status.
func (b *Base) Status() agent.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// UpdateStatus sets the agent's status.
func (b *Base) UpdateStatus(s agent.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// Metrics returns a copy of the agent's accumulated metrics.
func (b *Base) Metrics() agent.Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// UpdateMetrics folds one execution outcome into the agent's metrics.
func (b *Base) UpdateMetrics(res execution.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics.Record(res.Success, res.Duration, res.Timestamp)
}

// ReceiveMessage appends the envelope to the agent's mailbox.
func (b *Base) ReceiveMessage(msg message.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbox = append(b.inbox, msg)
	return nil
}

// Inbox returns a copy of the agent's mailbox.
func (b *Base) Inbox() []message.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]message.Message, len(b.inbox))
	copy(out, b.inbox)
	return out
}
