// Package task runs the simulated backend latencies as cancellable jobs and
// guards forms against duplicate submission.
package task

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInFlight is returned by Guard.Acquire when the key already has a pending operation.
var ErrInFlight = errors.New("operation already in progress")

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Result is the outcome of a background job.
type Result[T any] struct {
	Value T
	Err   error
}

// Job is a running background operation. Cancel releases it; the job's function
// observes the cancellation through its context.
type Job[T any] struct {
	cancel context.CancelFunc
	done   chan Result[T]
}

// Start runs fn in a goroutine with a context derived from parent.
func Start[T any](parent context.Context, fn func(ctx context.Context) (T, error)) *Job[T] {
	ctx, cancel := context.WithCancel(parent)
	j := &Job[T]{cancel: cancel, done: make(chan Result[T], 1)}
	go func() {
		defer cancel()
		v, err := fn(ctx)
		j.done <- Result[T]{Value: v, Err: err}
	}()
	return j
}

// Cancel stops the job. It is safe to call more than once.
func (j *Job[T]) Cancel() {
	j.cancel()
}

// Done delivers exactly one Result.
func (j *Job[T]) Done() <-chan Result[T] {
	return j.done
}

// Wait blocks until the job finishes or ctx is done. On ctx expiry the job is cancelled.
func (j *Job[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-j.done:
		return r.Value, r.Err
	case <-ctx.Done():
		j.cancel()
		var zero T
		return zero, ctx.Err()
	}
}

// Guard is a set of in-flight flags, one per key.
type Guard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{pending: make(map[string]struct{})}
}

// Acquire marks key as in flight. The returned release func clears it.
func (g *Guard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return nil, ErrInFlight
	}
	g.pending[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is in flight.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.pending[key]
	return busy
}

// Locks serialises work per key. Entries are dropped once no caller holds or waits on them.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{entries: make(map[string]*lockEntry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (l *Locks) Lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

func (l *Locks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
