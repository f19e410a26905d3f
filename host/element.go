// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-lazyload"
)

// Rect is an axis-aligned rectangle, in document coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Element is a DOM-style event target, with a bounding rectangle, for use
// with [Viewport]. It implements [lazyload.EventTarget], on top of the
// embedded [eventloop.EventTarget], adding the listener options the latter
// lacks.
//
// There is no tree: events are dispatched to the element only. Listeners
// registered with Capture run before those without, otherwise listeners run
// in registration order. [eventloop.Event.Target] is always the element's
// embedded EventTarget.
//
// Safe for concurrent use, though listeners are called synchronously by
// [Element.DispatchEvent], which would typically be called from the loop.
type Element struct {
	*eventloop.EventTarget
	capture   *eventloop.EventTarget
	listeners map[lazyload.ListenerID]*listenerEntry
	id        string
	rect      Rect
	nextID    lazyload.ListenerID
	mu        sync.Mutex
}

var _ lazyload.EventTarget = (*Element)(nil)

// listenerEntry maps a lazyload.ListenerID to its registration
type listenerEntry struct { //nolint:govet // betteralign:ignore
	phase     *eventloop.EventTarget
	binding   *abortBinding
	eventType string
	id        eventloop.ListenerID
	removed   atomic.Bool
}

// abortBinding is the only value retained by a signal, for a listener, and
// is cleared once the listener is gone.
type abortBinding struct {
	element *Element
	id      lazyload.ListenerID
	mu      sync.Mutex
}

func (x *abortBinding) abort(any) {
	x.mu.Lock()
	element := x.element
	x.element = nil
	x.mu.Unlock()
	if element != nil {
		element.RemoveEventListener(``, x.id)
	}
}

func (x *abortBinding) release() {
	x.mu.Lock()
	x.element = nil
	x.mu.Unlock()
}

// NewElement creates a detached element. The ID is informational, see
// [Window.CreateElement] for lookup.
func NewElement(id string) *Element {
	return &Element{
		EventTarget: eventloop.NewEventTarget(),
		capture:     eventloop.NewEventTarget(),
		listeners:   make(map[lazyload.ListenerID]*listenerEntry),
		id:          id,
	}
}

// IsNil reports whether e is a nil pointer, allowing lazyload to reject typed
// nil targets.
func (e *Element) IsNil() bool { return e == nil }

// ID returns the element's ID.
func (e *Element) ID() string { return e.id }

// Rect returns the element's bounding rectangle, see [Viewport.SetRect].
func (e *Element) Rect() Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rect
}

func (e *Element) String() string {
	return fmt.Sprintf(`#%s`, e.id)
}

func (e *Element) setRect(r Rect) {
	e.mu.Lock()
	e.rect = r
	e.mu.Unlock()
}

// AddEventListener implements [lazyload.EventTarget].
func (e *Element) AddEventListener(eventType string, listener func(), options *lazyload.ListenerOptions) (lazyload.ListenerID, error) {
	if listener == nil {
		return 0, ErrNilCallback
	}
	return e.AddEventListenerFunc(eventType, func(*eventloop.Event) { listener() }, options)
}

// AddEventListenerFunc registers a listener for eventType, with DOM
// addEventListener options semantics:
//   - Once: the listener is removed before it is first called
//   - Passive: [eventloop.Event.PreventDefault] is ignored, while the
//     listener runs
//   - Capture: the listener runs before non-capture listeners
//   - Signal: the listener is removed on abort, and not added if already
//     aborted (returning a zero ID, and no error)
func (e *Element) AddEventListenerFunc(eventType string, listener eventloop.EventListenerFunc, options *lazyload.ListenerOptions) (lazyload.ListenerID, error) {
	if listener == nil {
		return 0, ErrNilCallback
	}
	if err := validateEventType(eventType); err != nil {
		return 0, err
	}

	var opts lazyload.ListenerOptions
	if options != nil {
		opts = *options
	}
	if opts.Signal != nil && opts.Signal.Aborted() {
		return 0, nil
	}

	entry := &listenerEntry{
		phase:     e.EventTarget,
		eventType: eventType,
	}
	if opts.Capture {
		entry.phase = e.capture
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[id] = entry
	if opts.Signal != nil {
		entry.binding = &abortBinding{element: e, id: id}
	}
	// registered under mu, so the entry is complete before it can be removed
	entry.id = entry.phase.AddEventListener(eventType, func(event *eventloop.Event) {
		if entry.removed.Load() {
			return
		}
		if opts.Once && !e.remove(id) {
			return
		}
		event.Target = e.EventTarget
		if opts.Passive {
			prevented := event.DefaultPrevented
			defer func() { event.DefaultPrevented = prevented }()
		}
		listener(event)
	})
	e.mu.Unlock()

	if entry.binding != nil {
		opts.Signal.OnAbort(entry.binding.abort)
	}

	return id, nil
}

// RemoveEventListener implements [lazyload.EventTarget]. Unknown IDs are
// ignored. IDs are unique per element, so eventType is informational.
func (e *Element) RemoveEventListener(_ string, id lazyload.ListenerID) {
	e.remove(id)
}

// remove reports whether the listener was registered
func (e *Element) remove(id lazyload.ListenerID) bool {
	e.mu.Lock()
	entry, ok := e.listeners[id]
	if ok {
		delete(e.listeners, id)
	}
	e.mu.Unlock()
	if !ok || !entry.removed.CompareAndSwap(false, true) {
		return false
	}
	entry.phase.RemoveEventListenerByID(entry.eventType, entry.id)
	if entry.binding != nil {
		entry.binding.release()
	}
	return true
}

// ListenerCount returns the number of listeners for eventType, in either
// phase.
func (e *Element) ListenerCount(eventType string) int {
	return e.capture.ListenerCount(eventType) + e.EventTarget.ListenerCount(eventType)
}

// DispatchEvent calls the listeners for event.Type, synchronously, capture
// listeners first. Listeners removed during dispatch are not called.
// Listener panics propagate.
//
// Returns false if the event is cancelable, and the default was prevented.
func (e *Element) DispatchEvent(event *eventloop.Event) bool {
	if event == nil {
		return true
	}
	e.capture.DispatchEvent(event)
	if !event.IsImmediatePropagationStopped() {
		e.EventTarget.DispatchEvent(event)
	}
	event.Target = e.EventTarget
	return !event.Cancelable || !event.DefaultPrevented
}

func validateEventType(eventType string) error {
	if eventType == `` || strings.ContainsFunc(eventType, unicode.IsSpace) {
		return fmt.Errorf(`%w: %q`, ErrInvalidEventType, eventType)
	}
	return nil
}
