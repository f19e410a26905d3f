// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"time"
)

type (
	// TimerID identifies a timeout scheduled via [Host.SetTimeout].
	TimerID uint64

	// IdleID identifies a callback scheduled via [IdleHost.RequestIdleCallback].
	IdleID uint64

	// ListenerID identifies a listener registered via
	// [EventTarget.AddEventListener]. Go function values cannot be compared,
	// so listeners are removed by ID, rather than by reference.
	ListenerID uint64

	// Host models the environment that delivers activation signals. It is the
	// only required collaborator, and must support one-shot timers.
	//
	// Optional capabilities are detected via type assertion, at the time each
	// trigger is constructed, see [IdleHost], [IdleReporter], and
	// [ViewportHost].
	//
	// Implementations must be safe for concurrent use, as triggers may be
	// torn down from any goroutine that calls [Controller.Trigger] or
	// [Controller.Cancel].
	Host interface {
		// SetTimeout schedules fn to be called once, after delay.
		SetTimeout(fn func(), delay time.Duration) (TimerID, error)

		// ClearTimeout cancels a pending timeout. Unknown or already fired IDs
		// must be ignored.
		ClearTimeout(id TimerID)
	}

	// IdleHost is an optional [Host] capability, providing notification when
	// the host is idle, e.g. requestIdleCallback.
	IdleHost interface {
		RequestIdleCallback(fn func()) (IdleID, error)
		CancelIdleCallback(id IdleID)
	}

	// IdleReporter may be implemented alongside [IdleHost], to report that the
	// primitive is (currently) unavailable, e.g. due to environment.
	IdleReporter interface {
		IdleSupported() bool
	}

	// EventTarget models an element reference, able to deliver named events.
	EventTarget interface {
		// AddEventListener registers listener for eventType. If options is
		// non-nil and options.Once is set, the listener must be removed prior
		// to its first invocation. If options.Signal is set, the listener must
		// be removed when the signal aborts.
		AddEventListener(eventType string, listener func(), options *ListenerOptions) (ListenerID, error)

		// RemoveEventListener removes a listener, ignoring unknown IDs.
		RemoveEventListener(eventType string, id ListenerID)
	}

	// ListenerOptions mirrors the DOM's AddEventListenerOptions.
	ListenerOptions struct {
		// Signal removes the listener, when aborted.
		Signal AbortSignal
		// Capture registers the listener for the capture phase.
		Capture bool
		// Passive indicates the listener will never prevent the default action.
		Passive bool
		// Once removes the listener prior to its first invocation.
		Once bool
	}

	// AbortSignal is the subset of the DOM AbortSignal, consumed by event
	// targets.
	AbortSignal interface {
		Aborted() bool
		OnAbort(handler func(reason any))
	}

	// ViewportHost is an optional [Host] capability, required by
	// [TriggerVisible].
	ViewportHost interface {
		NewIntersectionObserver(callback IntersectionCallback, options IntersectionOptions) (IntersectionObserver, error)
	}

	// IntersectionCallback receives a batch of entries, see
	// [ViewportHost.NewIntersectionObserver].
	IntersectionCallback func(entries []IntersectionEntry, observer IntersectionObserver)

	// IntersectionOptions configures an [IntersectionObserver].
	IntersectionOptions struct {
		// RootMargin grows or shrinks the root bounds, see [ParseRootMargin].
		RootMargin string
		// Threshold is the fraction of the target's area, in [0, 1].
		Threshold float64
	}

	// IntersectionObserver watches targets for viewport intersection.
	IntersectionObserver interface {
		Observe(target EventTarget) error
		// Disconnect stops watching all targets, and must be idempotent.
		Disconnect()
	}

	// IntersectionEntry describes the intersection state of a single target.
	IntersectionEntry struct {
		Target            EventTarget
		IntersectionRatio float64
		IsIntersecting    bool
	}
)
