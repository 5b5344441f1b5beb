// Package ratelimit provides admission control for task execution.
//
// A Limiter gates when a unit of work may start, independent of which
// agent runs it. It enforces a concurrency ceiling plus rolling minute
// and hour windows that reset at wall-clock boundaries, and queues
// requests that cannot be admitted immediately instead of rejecting
// them outright.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Strob0t/TaskForge/internal/adapter/otel"
)

// Rejection reasons reported by CanExecuteImmediately.
const (
	ReasonConcurrency = "Too many concurrent requests"
	ReasonMinute      = "Minute rate limit exceeded"
	ReasonHour        = "Hourly rate limit exceeded"
)

// concurrencyBackoff is the fixed wait suggested when the concurrency
// ceiling is hit; there is no window boundary to wait for.
const concurrencyBackoff = 100 * time.Millisecond

var (
	// ErrQueueCleared is delivered to every queued caller when the
	// pending queue is cleared.
	ErrQueueCleared = errors.New("queue cleared")

	// ErrRequestTimeout is returned when a request's timeout elapses
	// before its function finishes. The function itself is not
	// cancelled; see Execute.
	ErrRequestTimeout = errors.New("request timeout")
)

// Config bounds the limiter's admission decisions.
type Config struct {
	MaxRequestsPerHour   int `yaml:"max_requests_per_hour" json:"max_requests_per_hour"`
	MaxRequestsPerMinute int `yaml:"max_requests_per_minute" json:"max_requests_per_minute"`
	MaxConcurrent        int `yaml:"max_concurrent" json:"max_concurrent"`
}

// Admission is the outcome of an immediate-execution check.
type Admission struct {
	OK     bool          `json:"can_execute"`
	Reason string        `json:"reason,omitempty"`
	Wait   time.Duration `json:"wait,omitempty"`
}

// Options tunes a single Execute call.
type Options struct {
	// Priority orders queued requests; higher drains first.
	Priority int

	// Timeout bounds how long the caller waits for the function once
	// it has started. Zero means wait indefinitely.
	Timeout time.Duration
}

// Limiter owns its counters and queue exclusively; no other component
// reads or writes them directly.
type Limiter struct {
	mu           sync.Mutex
	cfg          Config
	inFlight     int
	minuteStamps []time.Time
	hourStamps   []time.Time
	queue        []*queueItem
	seq          uint64

	totalAdmitted int64
	totalQueued   int64

	metrics *otel.Metrics

	now func() time.Time // for testing
}

// New creates a limiter with the given config.
func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg, now: time.Now}
}

// SetMetrics attaches metric instruments for queue-depth and throttle
// accounting.
func (l *Limiter) SetMetrics(m *otel.Metrics) {
	l.metrics = m
}

// CanExecuteImmediately reports whether a request would be admitted
// right now, and if not, why and how long until the blocking window
// rolls over.
func (l *Limiter) CanExecuteImmediately() Admission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admitLocked(l.now())
}

// admitLocked checks concurrency, then the minute window, then the
// hour window. The first violated condition determines the reason.
// Must be called with l.mu held.
func (l *Limiter) admitLocked(now time.Time) Admission {
	l.pruneLocked(now)

	if l.inFlight >= l.cfg.MaxConcurrent {
		return Admission{Reason: ReasonConcurrency, Wait: concurrencyBackoff}
	}
	if len(l.minuteStamps) >= l.cfg.MaxRequestsPerMinute {
		boundary := now.Truncate(time.Minute).Add(time.Minute)
		return Admission{Reason: ReasonMinute, Wait: boundary.Sub(now)}
	}
	if len(l.hourStamps) >= l.cfg.MaxRequestsPerHour {
		boundary := now.Truncate(time.Hour).Add(time.Hour)
		return Admission{Reason: ReasonHour, Wait: boundary.Sub(now)}
	}
	return Admission{OK: true}
}

// pruneLocked drops timestamps that fell out of the current wall-clock
// minute and hour windows. Windows roll over exactly at minute/hour
// boundaries, not relative to the first request.
func (l *Limiter) pruneLocked(now time.Time) {
	l.minuteStamps = pruneBefore(l.minuteStamps, now.Truncate(time.Minute))
	l.hourStamps = pruneBefore(l.hourStamps, now.Truncate(time.Hour))
}

func pruneBefore(stamps []time.Time, boundary time.Time) []time.Time {
	i := 0
	for i < len(stamps) && stamps[i].Before(boundary) {
		i++
	}
	return stamps[i:]
}

// beginLocked consumes one admission slot. Must be called with l.mu held.
func (l *Limiter) beginLocked(now time.Time) {
	l.inFlight++
	l.minuteStamps = append(l.minuteStamps, now)
	l.hourStamps = append(l.hourStamps, now)
	l.totalAdmitted++
}

// finish releases the concurrency slot once a function completes,
// successfully or not.
func (l *Limiter) finish() {
	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()
}

// Execute runs fn under admission control.
//
// If the request is admitted immediately it runs at once; otherwise it
// is queued (priority descending, FIFO within a priority) and the call
// blocks until a queue drain starts it, the queue is cleared, or ctx
// is done.
//
// Options.Timeout only abandons the wait: the caller gets
// ErrRequestTimeout but fn keeps running and its concurrency slot is
// released only when it returns. Callers must treat a timeout as
// "result unknown, resource may still be consumed".
func (l *Limiter) Execute(ctx context.Context, opts Options, fn func(context.Context) error) error {
	l.mu.Lock()
	now := l.now()
	if adm := l.admitLocked(now); adm.OK {
		l.beginLocked(now)
		l.mu.Unlock()
		return l.await(ctx, opts.Timeout, l.start(ctx, fn))
	}

	item := &queueItem{
		priority:   opts.Priority,
		enqueuedAt: now,
		seq:        l.seq,
		done:       make(chan error, 1),
	}
	l.seq++
	item.run = func(runCtx context.Context) {
		item.done <- l.awaitNoCtx(opts.Timeout, l.start(runCtx, fn))
	}
	l.enqueueLocked(item)
	l.mu.Unlock()

	select {
	case err := <-item.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start launches fn and returns the channel its result arrives on.
// The concurrency slot is released when fn returns, before the result
// is published, even if every waiter has already given up.
func (l *Limiter) start(ctx context.Context, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := func() error {
			defer l.finish()
			return fn(ctx)
		}()
		done <- err
	}()
	return done
}

// await waits for the result, racing the optional timeout and ctx.
func (l *Limiter) await(ctx context.Context, timeout time.Duration, done <-chan error) error {
	if timeout <= 0 {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return ErrRequestTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitNoCtx is await for queue-driven starts, where the enqueueing
// caller already watches its own ctx.
func (l *Limiter) awaitNoCtx(timeout time.Duration, done <-chan error) error {
	if timeout <= 0 {
		return <-done
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return ErrRequestTimeout
	}
}
