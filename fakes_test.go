package lazyload

import (
	"errors"
	"sync"
	"time"
)

// fakeHost is a minimal Host, with manually fired timers and idle callbacks.
type fakeHost struct {
	mu          sync.Mutex
	timers      map[TimerID]fakeTimer
	nextTimer   TimerID
	timerErr    error
	immediately bool // run SetTimeout callbacks synchronously
}

type fakeTimer struct {
	fn    func()
	delay time.Duration
}

func newFakeHost() *fakeHost {
	return &fakeHost{timers: make(map[TimerID]fakeTimer)}
}

func (h *fakeHost) SetTimeout(fn func(), delay time.Duration) (TimerID, error) {
	h.mu.Lock()
	if h.timerErr != nil {
		h.mu.Unlock()
		return 0, h.timerErr
	}
	h.nextTimer++
	id := h.nextTimer
	h.timers[id] = fakeTimer{fn: fn, delay: delay}
	immediately := h.immediately
	h.mu.Unlock()
	if immediately {
		fn()
	}
	return id, nil
}

func (h *fakeHost) ClearTimeout(id TimerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.timers, id)
}

func (h *fakeHost) pending() []fakeTimer {
	h.mu.Lock()
	defer h.mu.Unlock()
	timers := make([]fakeTimer, 0, len(h.timers))
	for _, t := range h.timers {
		timers = append(timers, t)
	}
	return timers
}

// fireAll runs every pending timer, regardless of delay
func (h *fakeHost) fireAll() {
	for _, t := range h.pending() {
		t.fn()
	}
}

// fakeIdleHost adds the idle capability.
type fakeIdleHost struct {
	*fakeHost
	idle      map[IdleID]func()
	nextIdle  IdleID
	supported bool
}

func newFakeIdleHost(supported bool) *fakeIdleHost {
	return &fakeIdleHost{
		fakeHost:  newFakeHost(),
		idle:      make(map[IdleID]func()),
		supported: supported,
	}
}

func (h *fakeIdleHost) RequestIdleCallback(fn func()) (IdleID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextIdle++
	h.idle[h.nextIdle] = fn
	return h.nextIdle, nil
}

func (h *fakeIdleHost) CancelIdleCallback(id IdleID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.idle, id)
}

func (h *fakeIdleHost) IdleSupported() bool { return h.supported }

func (h *fakeIdleHost) idleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.idle)
}

// fakeTarget is an EventTarget, recording listeners by event name.
type fakeTarget struct {
	mu        sync.Mutex
	listeners map[string]map[ListenerID]fakeListener
	nextID    ListenerID
	addErr    error
}

type fakeListener struct {
	fn      func()
	options ListenerOptions
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{listeners: make(map[string]map[ListenerID]fakeListener)}
}

func (t *fakeTarget) AddEventListener(eventType string, listener func(), options *ListenerOptions) (ListenerID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.addErr != nil {
		return 0, t.addErr
	}
	if t.listeners[eventType] == nil {
		t.listeners[eventType] = make(map[ListenerID]fakeListener)
	}
	t.nextID++
	var opts ListenerOptions
	if options != nil {
		opts = *options
	}
	t.listeners[eventType][t.nextID] = fakeListener{fn: listener, options: opts}
	return t.nextID, nil
}

func (t *fakeTarget) IsNil() bool { return t == nil }

func (t *fakeTarget) RemoveEventListener(eventType string, id ListenerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.listeners[eventType], id)
}

func (t *fakeTarget) count(eventType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners[eventType])
}

func (t *fakeTarget) options(eventType string) []ListenerOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ListenerOptions
	for _, l := range t.listeners[eventType] {
		out = append(out, l.options)
	}
	return out
}

// dispatch calls every listener, without honoring Once
func (t *fakeTarget) dispatch(eventType string) {
	t.mu.Lock()
	var fns []func()
	for _, l := range t.listeners[eventType] {
		fns = append(fns, l.fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

var errFake = errors.New(`fake failure`)
