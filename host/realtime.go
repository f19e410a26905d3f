// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"errors"
	"math"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-lazyload"
)

// Realtime adapts an [eventloop.JS] runtime to [lazyload.Host], scheduling
// timeouts on the wall clock, on the runtime's loop. It has no idle
// primitive, so idle triggers use [lazyload.IdleFallbackDelay].
//
// The loop must be running, see [eventloop.Loop.Run].
type Realtime struct {
	js *eventloop.JS
}

var _ lazyload.Host = (*Realtime)(nil)

// NewRealtime wraps js.
func NewRealtime(js *eventloop.JS) (*Realtime, error) {
	if js == nil {
		return nil, errors.New(`host: nil js runtime`)
	}
	return &Realtime{js: js}, nil
}

// SetTimeout implements [lazyload.Host]. Delays are rounded up to the
// millisecond resolution of the runtime.
func (x *Realtime) SetTimeout(fn func(), delay time.Duration) (lazyload.TimerID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	id, err := x.js.SetTimeout(fn, delayMillis(delay))
	if err != nil {
		return 0, err
	}
	return lazyload.TimerID(id), nil
}

// ClearTimeout implements [lazyload.Host]. Unknown or fired IDs are ignored.
func (x *Realtime) ClearTimeout(id lazyload.TimerID) {
	_ = x.js.ClearTimeout(uint64(id))
}

func delayMillis(delay time.Duration) int {
	if delay <= 0 {
		return 0
	}
	ms := delay / time.Millisecond
	if delay%time.Millisecond != 0 {
		ms++
	}
	if int64(ms) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
