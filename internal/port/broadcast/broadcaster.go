// Package broadcast defines the port for pushing real-time dispatch
// events to connected clients.
package broadcast

import "context"

// Broadcaster sends typed events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
