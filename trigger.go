// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"math"
	"time"
)

// TriggerKind discriminates [TriggerConfig].
type TriggerKind string

const (
	// TriggerDelay fires after TriggerConfig.Delay.
	TriggerDelay TriggerKind = `delay`
	// TriggerIdle fires when the host reports idleness, or after
	// [IdleFallbackDelay] if the host has no idle primitive.
	TriggerIdle TriggerKind = `idle`
	// TriggerClick fires on the first "click" event on TriggerConfig.Target.
	TriggerClick TriggerKind = `click`
	// TriggerMousemove fires on the first "mousemove" event on
	// TriggerConfig.Target.
	TriggerMousemove TriggerKind = `mousemove`
	// TriggerElementEvent fires on the first TriggerConfig.EventName event on
	// TriggerConfig.Target.
	TriggerElementEvent TriggerKind = `element-event`
	// TriggerVisible fires when TriggerConfig.Target intersects the viewport.
	TriggerVisible TriggerKind = `visible`
)

// IdleFallbackDelay is used by [TriggerIdle] if the host has no idle
// notification primitive.
const IdleFallbackDelay = 2000 * time.Millisecond

type (
	// TriggerConfig selects and parameterizes one activation strategy.
	// Only the fields applicable to On may be set, see [TriggerKind].
	// The helper constructors, e.g. [Delay], are the simplest way to build
	// valid values.
	TriggerConfig struct {
		// Target is the element, required for click, mousemove, element-event,
		// and visible. It is tolerated (and unused) for delay and idle.
		// Targets that implement IsNil() bool are treated as missing if it
		// returns true, e.g. a nil pointer.
		Target EventTarget

		// EventOptions are passed through, for element-event only. The Once
		// option is always applied.
		EventOptions *ListenerOptions

		On TriggerKind

		// EventName is required for element-event only.
		EventName string

		// RootMargin is optional for visible only, see [ParseRootMargin].
		RootMargin string

		// Delay is required (non-negative) for delay only.
		Delay time.Duration

		// Threshold is optional for visible only, in [0, 1].
		Threshold float64
	}

	// Teardown removes a trigger's host subscription. Implementations are
	// idempotent.
	Teardown func()
)

// Delay builds a [TriggerDelay] config.
func Delay(d time.Duration) TriggerConfig {
	return TriggerConfig{On: TriggerDelay, Delay: d}
}

// Idle builds a [TriggerIdle] config.
func Idle() TriggerConfig {
	return TriggerConfig{On: TriggerIdle}
}

// Click builds a [TriggerClick] config.
func Click(target EventTarget) TriggerConfig {
	return TriggerConfig{On: TriggerClick, Target: target}
}

// Mousemove builds a [TriggerMousemove] config.
func Mousemove(target EventTarget) TriggerConfig {
	return TriggerConfig{On: TriggerMousemove, Target: target}
}

// ElementEvent builds a [TriggerElementEvent] config. The options may be nil.
func ElementEvent(target EventTarget, eventName string, options *ListenerOptions) TriggerConfig {
	return TriggerConfig{On: TriggerElementEvent, Target: target, EventName: eventName, EventOptions: options}
}

// Visible builds a [TriggerVisible] config.
func Visible(target EventTarget, rootMargin string, threshold float64) TriggerConfig {
	return TriggerConfig{On: TriggerVisible, Target: target, RootMargin: rootMargin, Threshold: threshold}
}

// Validate returns a [*ConfigError] if the config is unusable.
func (x TriggerConfig) Validate() error {
	if err := x.validate(); err != nil {
		return err
	}
	return nil
}

func (x TriggerConfig) validate() *ConfigError {
	switch x.On {
	case TriggerDelay:
		if x.Delay < 0 {
			return configError(ErrInvalidField, x.On, `Delay`)
		}
		return x.inapplicable(`EventName`, `EventOptions`, `RootMargin`, `Threshold`)

	case TriggerIdle:
		return x.inapplicable(`Delay`, `EventName`, `EventOptions`, `RootMargin`, `Threshold`)

	case TriggerClick, TriggerMousemove:
		if isNilTarget(x.Target) {
			return configError(ErrMissingField, x.On, `Target`)
		}
		return x.inapplicable(`Delay`, `EventName`, `EventOptions`, `RootMargin`, `Threshold`)

	case TriggerElementEvent:
		if isNilTarget(x.Target) {
			return configError(ErrMissingField, x.On, `Target`)
		}
		if x.EventName == `` {
			return configError(ErrMissingField, x.On, `EventName`)
		}
		return x.inapplicable(`Delay`, `RootMargin`, `Threshold`)

	case TriggerVisible:
		if isNilTarget(x.Target) {
			return configError(ErrMissingField, x.On, `Target`)
		}
		if math.IsNaN(x.Threshold) || x.Threshold < 0 || x.Threshold > 1 {
			return configError(ErrInvalidField, x.On, `Threshold`)
		}
		if _, err := ParseRootMargin(x.RootMargin); err != nil {
			return configError(err, x.On, `RootMargin`)
		}
		return x.inapplicable(`Delay`, `EventName`, `EventOptions`)

	default:
		return configError(ErrUnknownTrigger, x.On, ``)
	}
}

// isNilTarget detects typed nil targets, via an optional IsNil method.
func isNilTarget(target EventTarget) bool {
	if target == nil {
		return true
	}
	if v, ok := target.(interface{ IsNil() bool }); ok {
		return v.IsNil()
	}
	return false
}

// inapplicable returns an error for the first of fields that is non-zero
func (x TriggerConfig) inapplicable(fields ...string) *ConfigError {
	for _, field := range fields {
		var set bool
		switch field {
		case `Delay`:
			set = x.Delay != 0
		case `EventName`:
			set = x.EventName != ``
		case `EventOptions`:
			set = x.EventOptions != nil
		case `RootMargin`:
			set = x.RootMargin != ``
		case `Threshold`:
			set = x.Threshold != 0
		}
		if set {
			return configError(ErrInapplicableField, x.On, field)
		}
	}
	return nil
}
