// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"context"
)

// FutureState represents the lifecycle state of a [Future].
// State transitions are irreversible.
type FutureState int

const (
	// FuturePending indicates the loader set has not yet settled.
	FuturePending FutureState = iota
	// FutureFulfilled indicates every loader succeeded.
	FutureFulfilled
	// FutureRejected indicates a loader failed, see [Future.Err].
	FutureRejected
)

// String returns a human-readable representation of the state.
func (s FutureState) String() string {
	switch s {
	case FuturePending:
		return `Pending`
	case FutureFulfilled:
		return `Fulfilled`
	case FutureRejected:
		return `Rejected`
	default:
		return `Unknown`
	}
}

// Future is the memoized result of a load. Every caller receives the same
// pointer, which is safe for concurrent use.
type Future[T any] struct {
	value T
	err   error
	done  chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// settle must be called exactly once
func (f *Future[T]) settle(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Done returns a channel that is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns the current [FutureState].
func (f *Future[T]) State() FutureState {
	select {
	case <-f.done:
		if f.err != nil {
			return FutureRejected
		}
		return FutureFulfilled
	default:
		return FuturePending
	}
}

// Value returns the fulfilled value, or the zero value if the future is
// pending or rejected.
func (f *Future[T]) Value() (value T) {
	select {
	case <-f.done:
		if f.err == nil {
			value = f.value
		}
	default:
	}
	return
}

// Err returns the rejection reason, or nil if the future is pending or
// fulfilled.
func (f *Future[T]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Await blocks until the future settles, or ctx is canceled, in which case
// the context's error is returned. Canceling ctx does not affect the load.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
