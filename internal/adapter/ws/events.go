package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTaskStatus  = "task.status"
	EventAgentStatus = "agent.status"
)

// TaskStatusEvent is broadcast when a task execution finishes.
type TaskStatusEvent struct {
	TaskID  string `json:"task_id"`
	AgentID string `json:"agent_id,omitempty"`
	Status  string `json:"status"`
}

// AgentStatusEvent is broadcast on every agent status transition.
type AgentStatusEvent struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
