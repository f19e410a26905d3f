// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-lazyload"
)

// Abort signals are [eventloop.AbortSignal] values, created via
// [eventloop.NewAbortController], and combined via [eventloop.AbortAny].
var _ lazyload.AbortSignal = (*eventloop.AbortSignal)(nil)

// AbortTimeout returns a controller that aborts after delay, per the virtual
// clock of loop. See [eventloop.AbortTimeout] for the wall clock equivalent.
func AbortTimeout(loop *Loop, delay time.Duration) (*eventloop.AbortController, error) {
	controller := eventloop.NewAbortController()
	if _, err := loop.SetTimeout(func() {
		controller.Abort(&eventloop.AbortError{Reason: `TimeoutError: The operation timed out`})
	}, delay); err != nil {
		return nil, err
	}
	return controller, nil
}
