// Package otel provides OpenTelemetry setup and metric instruments for
// the dispatch core.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskforge"

// Metrics holds all dispatch metric instruments.
type Metrics struct {
	TasksStarted   metric.Int64Counter
	TasksCompleted metric.Int64Counter
	TasksFailed    metric.Int64Counter
	TaskDuration   metric.Float64Histogram
	QueueDepth     metric.Int64UpDownCounter
	Throttled      metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksStarted, err = meter.Int64Counter("taskforge.tasks.started",
		metric.WithDescription("Number of task executions started"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("taskforge.tasks.completed",
		metric.WithDescription("Number of task executions that succeeded"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("taskforge.tasks.failed",
		metric.WithDescription("Number of task executions that failed"))
	if err != nil {
		return nil, err
	}

	m.TaskDuration, err = meter.Float64Histogram("taskforge.task.duration_seconds",
		metric.WithDescription("Task execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.QueueDepth, err = meter.Int64UpDownCounter("taskforge.ratelimit.queue_depth",
		metric.WithDescription("Pending requests in the rate limiter queue"))
	if err != nil {
		return nil, err
	}

	m.Throttled, err = meter.Int64Counter("taskforge.ratelimit.throttled",
		metric.WithDescription("Requests that could not be admitted immediately"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
