package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TaskForge/internal/domain/execution"
)

// HistoryStore implements historystore.Store using PostgreSQL
// (append-only).
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Append inserts one execution result.
func (s *HistoryStore) Append(ctx context.Context, res execution.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO execution_results (task_id, agent_id, success, output, error, duration_ms, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.TaskID, res.AgentID, res.Success, res.Output, res.Error,
		res.Duration.Milliseconds(), res.Timestamp)
	if err != nil {
		return fmt.Errorf("append execution result: %w", err)
	}
	return nil
}

const resultColumns = `task_id, agent_id, success, output, error, duration_ms, executed_at`

// scanResult scans a row into an execution.Result.
func scanResult(scanner interface{ Scan(dest ...any) error }, res *execution.Result) error {
	var durationMs int64
	if err := scanner.Scan(&res.TaskID, &res.AgentID, &res.Success,
		&res.Output, &res.Error, &durationMs, &res.Timestamp); err != nil {
		return err
	}
	res.Duration = time.Duration(durationMs) * time.Millisecond
	return nil
}

// ListByAgent returns up to limit stored results for one agent, oldest
// first.
func (s *HistoryStore) ListByAgent(ctx context.Context, agentID string, limit int) ([]execution.Result, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM (
			SELECT id, %s FROM execution_results WHERE agent_id = $1 ORDER BY id DESC LIMIT $2
		) sub ORDER BY id ASC`, resultColumns, resultColumns), agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// List returns up to limit of the most recent stored results, oldest
// first.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]execution.Result, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM (
			SELECT id, %s FROM execution_results ORDER BY id DESC LIMIT $1
		) sub ORDER BY id ASC`, resultColumns, resultColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

func collectResults(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]execution.Result, error) {
	var results []execution.Result
	for rows.Next() {
		var res execution.Result
		if err := scanResult(rows, &res); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
