// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-lazyload"
	"github.com/joeycumines/logiface"
)

// Loop is a single-threaded scheduler over a virtual clock, implementing
// [lazyload.Host] and [lazyload.IdleHost].
//
// Scheduling methods are safe to call from any goroutine. Callbacks run only
// while the loop is driven, by either [Loop.Advance] (deterministic, e.g. for
// tests) or [Loop.Run] (wall clock), and always on the driving goroutine.
//
// Task priority ordering, at each instant of virtual time:
//  1. Submitted tasks (FIFO)
//  2. Due timers (earliest deadline first, then FIFO)
//  3. Idle callbacks, at most one idle period per instant
type Loop struct { // betteralign:ignore
	logger     *logiface.Logger[logiface.Event]
	now        time.Time
	timers     timerHeap
	timerIndex map[lazyload.TimerID]*timer
	idle       []idleRequest
	tasks      []func()
	wake       chan struct{}
	done       chan struct{}

	nextTimerID uint64
	nextIdleID  uint64
	seq         uint64

	mu sync.Mutex

	driving     atomic.Bool
	running     atomic.Bool
	idleSupport bool
	closed      bool
}

var (
	_ lazyload.Host         = (*Loop)(nil)
	_ lazyload.IdleHost     = (*Loop)(nil)
	_ lazyload.IdleReporter = (*Loop)(nil)
)

// timer represents a scheduled callback
type timer struct {
	when  time.Time
	fn    func()
	seq   uint64
	id    lazyload.TimerID
	index int
}

// timerHeap is a min-heap of timers, tracking indexes for removal
type timerHeap []*timer

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	x.index = -1
	return x
}

type idleRequest struct {
	fn func()
	id lazyload.IdleID
}

// New creates a loop. The virtual clock starts at the Unix epoch, unless
// [WithStartTime] is provided.
func New(opts ...LoopOption) (*Loop, error) {
	options, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Loop{
		logger:      options.logger,
		now:         options.start,
		timerIndex:  make(map[lazyload.TimerID]*timer),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		idleSupport: options.idleSupport,
	}, nil
}

// Now returns the current virtual time.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// SetTimeout schedules fn to run once, after delay. Negative delays are
// treated as zero.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) (lazyload.TimerID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	if delay < 0 {
		delay = 0
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, ErrLoopClosed
	}
	l.nextTimerID++
	l.seq++
	t := &timer{
		when: l.now.Add(delay),
		fn:   fn,
		seq:  l.seq,
		id:   lazyload.TimerID(l.nextTimerID),
	}
	heap.Push(&l.timers, t)
	l.timerIndex[t.id] = t
	l.mu.Unlock()

	l.signal()
	return t.id, nil
}

// ClearTimeout cancels a pending timeout. Unknown IDs are ignored.
func (l *Loop) ClearTimeout(id lazyload.TimerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timerIndex[id]; ok {
		delete(l.timerIndex, id)
		heap.Remove(&l.timers, t.index)
	}
}

// RequestIdleCallback schedules fn to run in the next idle period.
func (l *Loop) RequestIdleCallback(fn func()) (lazyload.IdleID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, ErrLoopClosed
	}
	if !l.idleSupport {
		l.mu.Unlock()
		return 0, ErrIdleUnsupported
	}
	l.nextIdleID++
	id := lazyload.IdleID(l.nextIdleID)
	l.idle = append(l.idle, idleRequest{fn: fn, id: id})
	l.mu.Unlock()

	l.signal()
	return id, nil
}

// CancelIdleCallback cancels a pending idle callback. Unknown IDs are ignored.
func (l *Loop) CancelIdleCallback(id lazyload.IdleID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, req := range l.idle {
		if req.id == id {
			l.idle = append(l.idle[:i], l.idle[i+1:]...)
			return
		}
	}
}

// IdleSupported implements [lazyload.IdleReporter].
func (l *Loop) IdleSupported() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idleSupport && !l.closed
}

// SetIdleSupport toggles idle support, e.g. to simulate environments
// without requestIdleCallback. Pending idle callbacks are unaffected.
func (l *Loop) SetIdleSupport(enabled bool) {
	l.mu.Lock()
	l.idleSupport = enabled
	l.mu.Unlock()
}

// Submit enqueues a task, to run on the loop. Safe to call from any goroutine.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// PendingTimers returns the number of scheduled timeouts.
func (l *Loop) PendingTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// PendingIdle returns the number of scheduled idle callbacks.
func (l *Loop) PendingIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.idle)
}

// RunPending runs everything runnable at the current instant, i.e.
// Advance(0).
func (l *Loop) RunPending() {
	l.Advance(0)
}

// Advance moves the virtual clock forward by d, running every task, timer,
// and idle period that falls due, in order. Callbacks observe [Loop.Now] as
// their scheduled time.
//
// WARNING: Panics if called while the loop is already being driven, e.g.
// from within a callback, or concurrently with [Loop.Run].
func (l *Loop) Advance(d time.Duration) {
	if !l.driving.CompareAndSwap(false, true) {
		panic(`host: loop is already being driven`)
	}
	defer l.driving.Store(false)

	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	target := l.now.Add(d)
	l.mu.Unlock()

	var (
		idleDone bool
		idleAt   time.Time
	)
	for {
		if l.runTask() {
			continue
		}
		now := l.Now()
		if l.runTimer(now) {
			continue
		}
		if !idleDone || !idleAt.Equal(now) {
			idleDone, idleAt = true, now
			if l.runIdle() {
				continue
			}
		}
		if l.runTimer(target) {
			continue
		}
		if l.advanceTo(target) {
			continue
		}
		return
	}
}

// Run drives the loop from the wall clock, until ctx is canceled or the loop
// is closed. Virtual time advances by the elapsed wall time.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	last := time.Now()
	for {
		now := time.Now()
		l.Advance(now.Sub(last))
		last = now

		var (
			wait   *time.Timer
			timerC <-chan time.Time
		)
		if next, ok := l.nextDeadline(); ok {
			wait = time.NewTimer(next)
			timerC = wait.C
		}

		select {
		case <-ctx.Done():
			stopTimer(wait)
			return ctx.Err()
		case <-l.done:
			stopTimer(wait)
			return nil
		case <-l.wake:
		case <-timerC:
		}
		stopTimer(wait)
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Close discards all pending work. Subsequent scheduling fails with
// [ErrLoopClosed]. Idempotent.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.timers = nil
	clear(l.timerIndex)
	l.idle = nil
	l.tasks = nil
	close(l.done)
	return nil
}

// nextDeadline returns the duration until the earliest timer, or, if work is
// runnable now, zero
func (l *Loop) nextDeadline() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) != 0 {
		return 0, true
	}
	if len(l.timers) == 0 {
		return 0, false
	}
	return max(l.timers[0].when.Sub(l.now), 0), true
}

func (l *Loop) runTask() bool {
	l.mu.Lock()
	if len(l.tasks) == 0 {
		l.mu.Unlock()
		return false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	l.mu.Unlock()
	l.safeExecute(fn)
	return true
}

// runTimer runs the earliest timer due at or before limit
func (l *Loop) runTimer(limit time.Time) bool {
	l.mu.Lock()
	if len(l.timers) == 0 || l.timers[0].when.After(limit) {
		l.mu.Unlock()
		return false
	}
	t := heap.Pop(&l.timers).(*timer)
	delete(l.timerIndex, t.id)
	if t.when.After(l.now) {
		l.now = t.when
	}
	l.mu.Unlock()
	l.safeExecute(t.fn)
	return true
}

// runIdle runs the idle callbacks pending at the start of the idle period.
// IDs are monotonic, and requests are kept in ID order.
func (l *Loop) runIdle() (ran bool) {
	l.mu.Lock()
	limit := lazyload.IdleID(l.nextIdleID)
	l.mu.Unlock()
	for {
		l.mu.Lock()
		if len(l.idle) == 0 || l.idle[0].id > limit {
			l.mu.Unlock()
			return
		}
		req := l.idle[0]
		l.idle = l.idle[1:]
		l.mu.Unlock()
		l.safeExecute(req.fn)
		ran = true
	}
}

func (l *Loop) advanceTo(target time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if target.After(l.now) {
		l.now = target
		return true
	}
	return false
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute executes a callback with panic recovery.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().
				Any(`panic`, r).
				Log(`host: recovered callback panic`)
		}
	}()
	fn()
}
