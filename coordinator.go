// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"context"
	"sync"

	"github.com/joeycumines/logiface"
)

// State is the lifecycle state of a [Controller].
//
//	StatePending → StateLoading        [first activation]
//	StatePending → StateCancelled      [Cancel]
//	StateCancelled → StateLoading      [manual Trigger]
//	StateLoading → StateLoaded         [all loaders succeeded]
//	StateLoading → StateFailed         [any loader failed]
//
// StateLoaded and StateFailed are terminal.
type State int

const (
	// StatePending indicates no activation has occurred.
	StatePending State = iota
	// StateCancelled indicates passive triggers were torn down, prior to any
	// activation.
	StateCancelled
	// StateLoading indicates the loader set is in flight.
	StateLoading
	// StateLoaded indicates the loader set succeeded.
	StateLoaded
	// StateFailed indicates a loader failed. There is no retry.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return `Pending`
	case StateCancelled:
		return `Cancelled`
	case StateLoading:
		return `Loading`
	case StateLoaded:
		return `Loaded`
	case StateFailed:
		return `Failed`
	default:
		return `Unknown`
	}
}

// coordinator guarantees at most one invocation of loader, and owns the
// teardown handles of every trigger.
type coordinator[T any] struct {
	ctx        context.Context
	loader     Loader[T]
	logger     *logiface.Logger[logiface.Event]
	onActivate func(index int, kind TriggerKind)
	future     *Future[T]
	teardowns  []Teardown
	mu         sync.Mutex
	state      State
}

// adopt takes ownership of a trigger's teardown, or runs it immediately, if
// the trigger is already moot.
func (x *coordinator[T]) adopt(teardown Teardown) {
	x.mu.Lock()
	if x.state == StatePending {
		x.teardowns = append(x.teardowns, teardown)
		x.mu.Unlock()
		return
	}
	x.mu.Unlock()
	teardown()
}

// fire is the onFire callback of the passive trigger at index.
func (x *coordinator[T]) fire(index int, kind TriggerKind) {
	x.mu.Lock()
	if x.state != StatePending {
		x.mu.Unlock()
		return
	}
	f, teardowns := x.start()
	x.mu.Unlock()

	x.logger.Info().
		Int(`trigger`, index).
		Str(`on`, string(kind)).
		Log(`lazyload: trigger fired`)

	x.begin(f, teardowns, index, kind)
}

// load is the manual trigger, which is honored even after cancel.
func (x *coordinator[T]) load() *Future[T] {
	x.mu.Lock()
	if x.future != nil {
		f := x.future
		x.mu.Unlock()
		return f
	}
	f, teardowns := x.start()
	x.mu.Unlock()

	x.logger.Debug().Log(`lazyload: manual trigger`)

	x.begin(f, teardowns, -1, ``)
	return f
}

// start must be called with mu held, and only while no future exists
func (x *coordinator[T]) start() (*Future[T], []Teardown) {
	f := newFuture[T]()
	x.future = f
	x.state = StateLoading
	teardowns := x.teardowns
	x.teardowns = nil
	return f, teardowns
}

// begin must be called without mu held
func (x *coordinator[T]) begin(f *Future[T], teardowns []Teardown, index int, kind TriggerKind) {
	for _, teardown := range teardowns {
		teardown()
	}
	if x.onActivate != nil {
		x.onActivate(index, kind)
	}
	go x.run(f)
}

func (x *coordinator[T]) run(f *Future[T]) {
	value, err := x.invoke()

	x.mu.Lock()
	if err != nil {
		x.state = StateFailed
	} else {
		x.state = StateLoaded
	}
	x.mu.Unlock()

	if err != nil {
		x.logger.Err().Err(err).Log(`lazyload: load failed`)
	} else {
		x.logger.Info().Log(`lazyload: loaded`)
	}

	f.settle(value, err)
}

func (x *coordinator[T]) invoke() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, &PanicError{Value: r}
		}
	}()
	return x.loader(x.ctx)
}

func (x *coordinator[T]) cancel() {
	x.mu.Lock()
	if x.state != StatePending {
		x.mu.Unlock()
		return
	}
	x.state = StateCancelled
	teardowns := x.teardowns
	x.teardowns = nil
	x.mu.Unlock()

	for _, teardown := range teardowns {
		teardown()
	}

	x.logger.Debug().
		Int(`triggers`, len(teardowns)).
		Log(`lazyload: cancelled`)
}

func (x *coordinator[T]) hasLoaded() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.future != nil
}

func (x *coordinator[T]) getState() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}
