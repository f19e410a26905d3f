// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"time"

	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger      *logiface.Logger[logiface.Event]
	start       time.Time
	idleSupport bool
}

// --- Loop Options ---

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger sets the logger used to report recovered callback panics.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithStartTime sets the initial value of the virtual clock.
// Defaults to the Unix epoch, for reproducibility.
func WithStartTime(t time.Time) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if t.IsZero() {
			return errInvalidStartTime
		}
		opts.start = t
		return nil
	}}
}

// WithIdleSupport sets whether the loop advertises idle callback support, via
// Loop.IdleSupported. Disabling it simulates a host without
// requestIdleCallback. Enabled by default.
func WithIdleSupport(enabled bool) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.idleSupport = enabled
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		start:       time.Unix(0, 0).UTC(),
		idleSupport: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
