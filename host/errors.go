// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"errors"
)

var (
	// ErrLoopClosed is returned when scheduling on a closed [Loop].
	ErrLoopClosed = errors.New(`host: loop closed`)

	// ErrLoopRunning is returned by [Loop.Run] if the loop is already running.
	ErrLoopRunning = errors.New(`host: loop already running`)

	// ErrIdleUnsupported is returned by [Loop.RequestIdleCallback] if idle
	// support was disabled, see [WithIdleSupport].
	ErrIdleUnsupported = errors.New(`host: idle callbacks unsupported`)

	// ErrNilCallback is returned when a nil callback or listener is provided.
	ErrNilCallback = errors.New(`host: nil callback`)

	// ErrInvalidEventType is returned for an empty or malformed event type.
	ErrInvalidEventType = errors.New(`host: invalid event type`)

	// ErrUnsupportedTarget is returned when observing a target that is not an
	// [*Element], or belongs to a different document.
	ErrUnsupportedTarget = errors.New(`host: unsupported target`)

	// ErrObserverDisconnected is returned when observing via a disconnected
	// [IntersectionObserver].
	ErrObserverDisconnected = errors.New(`host: observer disconnected`)

	errInvalidStartTime = errors.New(`host: invalid start time`)
)
