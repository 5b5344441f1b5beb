// Package historystore defines the port for durable execution-history
// mirroring. The dispatcher's in-memory log stays the source of truth;
// a store only receives append-only copies.
package historystore

import (
	"context"

	"github.com/Strob0t/TaskForge/internal/domain/execution"
)

// Store persists execution results.
type Store interface {
	// Append records one result. Results are never updated in place.
	Append(ctx context.Context, res execution.Result) error

	// ListByAgent returns the stored results for one agent, oldest first.
	ListByAgent(ctx context.Context, agentID string, limit int) ([]execution.Result, error)

	// List returns the most recent stored results, oldest first.
	List(ctx context.Context, limit int) ([]execution.Result, error)
}
