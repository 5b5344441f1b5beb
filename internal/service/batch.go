package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/TaskForge/internal/domain/execution"
	"github.com/Strob0t/TaskForge/internal/domain/task"
)

// ExecuteParallel schedules every task concurrently and returns results
// in input order, not completion order. Each task re-reads the current
// idle set when it is routed, so later tasks may land on different
// agents while earlier ones are still running.
func (d *Dispatcher) ExecuteParallel(ctx context.Context, tasks []*task.Task) []execution.Result {
	results := make([]execution.Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	if d.maxParallel > 0 {
		g.SetLimit(d.maxParallel)
	}
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = d.ExecuteTask(gctx, t, "", "")
			return nil
		})
	}
	// Task-level failures are contained in their results; the group
	// never carries an error.
	_ = g.Wait()

	return results
}

// ExecuteSequential runs tasks one at a time, in order. After a failing
// task the batch stops and the returned slice holds only the completed
// results, unless that task's ContinueOnError metadata is set, in which
// case execution proceeds to the next task.
func (d *Dispatcher) ExecuteSequential(ctx context.Context, tasks []*task.Task) []execution.Result {
	results := make([]execution.Result, 0, len(tasks))

	for _, t := range tasks {
		res := d.ExecuteTask(ctx, t, "", "")
		results = append(results, res)

		if !res.Success && !t.Metadata.ContinueOnError {
			break
		}
	}
	return results
}
