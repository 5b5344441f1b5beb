package ratelimit

import (
	"context"
	"sort"
	"time"
)

// queueItem is one pending request awaiting admission.
type queueItem struct {
	priority   int
	enqueuedAt time.Time
	seq        uint64
	run        func(ctx context.Context)
	done       chan error
}

// enqueueLocked appends the item and re-sorts the queue: priority
// descending, then FIFO by enqueue order. Must be called with l.mu held.
func (l *Limiter) enqueueLocked(item *queueItem) {
	l.queue = append(l.queue, item)
	l.totalQueued++
	if l.metrics != nil {
		l.metrics.Throttled.Add(context.Background(), 1)
		l.metrics.QueueDepth.Add(context.Background(), 1)
	}
	sort.SliceStable(l.queue, func(i, j int) bool {
		a, b := l.queue[i], l.queue[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.seq < b.seq
	})
}

// ProcessQueue starts queued requests while admission holds, without
// waiting for any of them to complete, and returns how many it started.
func (l *Limiter) ProcessQueue() int {
	started := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return started
		}
		now := l.now()
		if adm := l.admitLocked(now); !adm.OK {
			l.mu.Unlock()
			return started
		}
		item := l.queue[0]
		l.queue = l.queue[1:]
		l.beginLocked(now)
		if l.metrics != nil {
			l.metrics.QueueDepth.Add(context.Background(), -1)
		}
		l.mu.Unlock()

		// Fire and forget; the result reaches the enqueueing caller
		// through the item's done channel.
		go item.run(context.Background())
		started++
	}
}

// StartQueueProcessor drains the queue on a fixed cadence.
// The returned function stops the processor.
func (l *Limiter) StartQueueProcessor(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.ProcessQueue()
			}
		}
	}()
	return cancel
}

// ClearQueue rejects every pending request with ErrQueueCleared and
// returns how many were rejected. Queued callers are never left
// unresolved.
func (l *Limiter) ClearQueue() int {
	l.mu.Lock()
	cleared := l.queue
	l.queue = nil
	if l.metrics != nil && len(cleared) > 0 {
		l.metrics.QueueDepth.Add(context.Background(), -int64(len(cleared)))
	}
	l.mu.Unlock()

	for _, item := range cleared {
		item.done <- ErrQueueCleared
	}
	return len(cleared)
}

// QueueLen returns the number of pending requests.
func (l *Limiter) QueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
