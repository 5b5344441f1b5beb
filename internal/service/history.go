package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Strob0t/TaskForge/internal/adapter/ws"
	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/port/messagequeue"
)

// ErrNoHistoryStore is returned by StoredHistory when no durable store
// is attached.
var ErrNoHistoryStore = errors.New("no history store configured")

// defaultStoredHistoryLimit caps store reads when no limit is given.
const defaultStoredHistoryLimit = 100

// record appends the result to the execution history and mirrors it to
// the attached collaborators. Exactly one append per ExecuteTask call.
func (d *Dispatcher) record(ctx context.Context, res execution.Result) {
	d.historyMu.Lock()
	d.history = append(d.history, res)
	d.historyMu.Unlock()

	if d.metrics != nil {
		if res.Success {
			d.metrics.TasksCompleted.Add(ctx, 1)
		} else {
			d.metrics.TasksFailed.Add(ctx, 1)
		}
		d.metrics.TaskDuration.Record(ctx, res.Duration.Seconds())
	}

	if d.store != nil {
		if err := d.store.Append(ctx, res); err != nil {
			slog.Error("history store append failed", "task_id", res.TaskID, "error", err)
		}
	}

	if d.hub != nil {
		status := "completed"
		if !res.Success {
			status = "failed"
		}
		d.hub.BroadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
			TaskID:  res.TaskID,
			AgentID: res.AgentID,
			Status:  status,
		})
	}

	d.publish(ctx, messagequeue.SubjectTaskResult, res)
}

// History returns a defensive copy of the execution history. Callers
// may mutate the returned slice freely.
func (d *Dispatcher) History() []execution.Result {
	d.historyMu.RLock()
	defer d.historyMu.RUnlock()

	out := make([]execution.Result, len(d.history))
	copy(out, d.history)
	return out
}

// HistoryByAgent returns the history entries recorded for one agent.
func (d *Dispatcher) HistoryByAgent(agentID string) []execution.Result {
	d.historyMu.RLock()
	defer d.historyMu.RUnlock()

	var out []execution.Result
	for _, res := range d.history {
		if res.AgentID == agentID {
			out = append(out, res)
		}
	}
	return out
}

// StoredHistory reads results back from the attached durable store,
// oldest first. The in-memory log survives only the process; the store
// holds everything ever appended, so this is the read path for results
// recorded before the last restart or after ClearHistory. A limit < 1
// falls back to defaultStoredHistoryLimit.
func (d *Dispatcher) StoredHistory(ctx context.Context, agentID string, limit int) ([]execution.Result, error) {
	if d.store == nil {
		return nil, ErrNoHistoryStore
	}
	if limit < 1 {
		limit = defaultStoredHistoryLimit
	}
	if agentID != "" {
		return d.store.ListByAgent(ctx, agentID, limit)
	}
	return d.store.List(ctx, limit)
}

// ClearHistory drops all recorded results.
func (d *Dispatcher) ClearHistory() {
	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	d.history = nil
}

// PerformanceReport aggregates the execution history.
type PerformanceReport struct {
	TotalTasks      int                         `json:"total_tasks"`
	SuccessRate     float64                     `json:"success_rate"`
	AverageDuration time.Duration               `json:"average_duration"`
	Agents          map[string]AgentPerformance `json:"agents"`
}

// AgentPerformance is the per-agent slice of the report, derived from
// that agent's history entries only.
type AgentPerformance struct {
	TotalTasks      int           `json:"total_tasks"`
	TasksCompleted  int           `json:"tasks_completed"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// PerformanceMetrics computes totals, the global success rate
// (percent, 0 when the history is empty), average duration, and a
// per-agent breakdown over the full history.
func (d *Dispatcher) PerformanceMetrics() PerformanceReport {
	d.historyMu.RLock()
	defer d.historyMu.RUnlock()

	report := PerformanceReport{Agents: make(map[string]AgentPerformance)}
	if len(d.history) == 0 {
		return report
	}

	var successes int
	var totalDuration time.Duration
	perAgent := make(map[string]*AgentPerformance)
	perAgentDuration := make(map[string]time.Duration)

	for _, res := range d.history {
		report.TotalTasks++
		totalDuration += res.Duration

		ap := perAgent[res.AgentID]
		if ap == nil {
			ap = &AgentPerformance{}
			perAgent[res.AgentID] = ap
		}
		ap.TotalTasks++
		perAgentDuration[res.AgentID] += res.Duration
		if res.Success {
			successes++
			ap.TasksCompleted++
		}
	}

	report.SuccessRate = float64(successes) / float64(report.TotalTasks) * 100
	report.AverageDuration = totalDuration / time.Duration(report.TotalTasks)

	for id, ap := range perAgent {
		ap.SuccessRate = float64(ap.TasksCompleted) / float64(ap.TotalTasks) * 100
		ap.AverageDuration = perAgentDuration[id] / time.Duration(ap.TotalTasks)
		report.Agents[id] = *ap
	}
	return report
}
