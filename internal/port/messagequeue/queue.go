// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to
// dispatch events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subjects mirrored by the dispatcher.
const (
	SubjectTaskResult   = "tasks.result"   // execution results
	SubjectAgentMessage = "agents.message" // inter-agent envelopes
	SubjectAgentStatus  = "agents.status"  // agent status transitions
)
