package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TaskForge/internal/domain/message"
	"github.com/Strob0t/TaskForge/internal/port/messagequeue"
	"github.com/Strob0t/TaskForge/internal/resilience"
)

// SetQueue attaches a message queue that mirrors agent messaging and
// task results to external subscribers. Publishes run behind the given
// breaker so a broken broker cannot stall dispatch.
func (d *Dispatcher) SetQueue(q messagequeue.Queue, brk *resilience.Breaker) {
	d.queue = q
	d.breaker = brk
}

// SendMessage delivers a message synchronously to the target agent's
// mailbox. An unregistered target is a caller error, surfaced
// immediately rather than swallowed.
func (d *Dispatcher) SendMessage(ctx context.Context, fromAgentID, toAgentID, content string) error {
	target := d.reg.Get(toAgentID)
	if target == nil {
		return fmt.Errorf("agent with ID %s not found", toAgentID)
	}

	msg := message.New(fromAgentID, toAgentID, content)
	if err := target.ReceiveMessage(msg); err != nil {
		return fmt.Errorf("deliver message to %s: %w", toAgentID, err)
	}

	d.publish(ctx, messagequeue.SubjectAgentMessage, msg)
	return nil
}

// Broadcast delivers the envelope to every registered agent in
// registry-iteration order, regardless of status.
func (d *Dispatcher) Broadcast(ctx context.Context, msg message.Message) {
	for _, ag := range d.reg.All() {
		if err := ag.ReceiveMessage(msg); err != nil {
			slog.Warn("broadcast delivery failed", "agent_id", ag.ID(), "error", err)
		}
	}

	d.publish(ctx, messagequeue.SubjectAgentMessage, msg)
}

// BroadcastFrom builds an envelope and delivers it to every registered
// agent.
func (d *Dispatcher) BroadcastFrom(ctx context.Context, fromAgentID, content string) {
	d.Broadcast(ctx, message.New(fromAgentID, "", content))
}

// publish mirrors a payload onto the attached queue, best-effort.
func (d *Dispatcher) publish(ctx context.Context, subject string, payload any) {
	if d.queue == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal queue payload", "subject", subject, "error", err)
		return
	}

	pub := func() error { return d.queue.Publish(ctx, subject, data) }
	if d.breaker != nil {
		err = d.breaker.Execute(pub)
	} else {
		err = pub()
	}
	if err != nil {
		slog.Warn("queue publish failed", "subject", subject, "error", err)
	}
}
