// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// MaxDelayMillis is the largest [TriggerSpec] delay representable as a
// [time.Duration].
const MaxDelayMillis = math.MaxInt64 / int64(time.Millisecond)

type (
	// TriggerSpec is the declarative (serializable) form of [TriggerConfig],
	// with targets referenced by ID. See [DecodeTOML] and [DecodeJSON].
	TriggerSpec struct {
		// Threshold is optional, for visible.
		Threshold *float64 `toml:"threshold" json:"threshold,omitempty"`

		// Delay is in milliseconds, for delay.
		Delay *int64 `toml:"delay" json:"delay,omitempty"`

		On string `toml:"on" json:"on"`

		// Target is resolved via an ElementResolver.
		Target string `toml:"target" json:"target,omitempty"`

		// Event is the event name, for element-event.
		Event string `toml:"event" json:"event,omitempty"`

		RootMargin string `toml:"root_margin" json:"rootMargin,omitempty"`

		Capture bool `toml:"capture" json:"capture,omitempty"`
		Passive bool `toml:"passive" json:"passive,omitempty"`
	}

	// ElementResolver looks up targets by ID.
	ElementResolver interface {
		ElementByID(id string) (EventTarget, bool)
	}

	// ElementResolverFunc implements ElementResolver.
	ElementResolverFunc func(id string) (EventTarget, bool)

	// tomlTriggers is the document layout accepted by DecodeTOML
	tomlTriggers struct {
		Trigger []TriggerSpec `toml:"trigger"`
	}
)

var _ ElementResolver = ElementResolverFunc(nil)

// ElementByID implements ElementResolver.
func (x ElementResolverFunc) ElementByID(id string) (EventTarget, bool) {
	return x(id)
}

// Config converts x to a [TriggerConfig], resolving the target, if any. The
// result is validated. A nil resolver is valid, if x has no target.
func (x TriggerSpec) Config(resolver ElementResolver) (TriggerConfig, error) {
	c := TriggerConfig{
		On:         TriggerKind(x.On),
		EventName:  x.Event,
		RootMargin: x.RootMargin,
	}
	if x.Delay != nil {
		if *x.Delay > MaxDelayMillis {
			return TriggerConfig{}, configError(ErrInvalidField, c.On, `Delay`)
		}
		c.Delay = time.Duration(*x.Delay) * time.Millisecond
	}
	if x.Threshold != nil {
		c.Threshold = *x.Threshold
	}
	if x.Capture || x.Passive {
		c.EventOptions = &ListenerOptions{Capture: x.Capture, Passive: x.Passive}
	}
	if x.Target != `` {
		var (
			target EventTarget
			ok     bool
		)
		if resolver != nil {
			target, ok = resolver.ElementByID(x.Target)
		}
		if !ok {
			return TriggerConfig{}, configError(fmt.Errorf(`%w: unknown target %q`, ErrInvalidField, x.Target), c.On, `Target`)
		}
		c.Target = target
	}
	if err := c.validate(); err != nil {
		return TriggerConfig{}, err
	}
	if c.On == TriggerDelay && x.Delay == nil {
		return TriggerConfig{}, configError(ErrMissingField, c.On, `Delay`)
	}
	return c, nil
}

// ResolveSpecs converts each spec, see [TriggerSpec.Config].
func ResolveSpecs(specs []TriggerSpec, resolver ElementResolver) ([]TriggerConfig, error) {
	configs := make([]TriggerConfig, len(specs))
	for i, spec := range specs {
		c, err := spec.Config(resolver)
		if err != nil {
			var configErr *ConfigError
			if errors.As(err, &configErr) {
				configErr.Index = i
			}
			return nil, err
		}
		configs[i] = c
	}
	return configs, nil
}

// DecodeTOML parses an array of tables named "trigger", each a
// [TriggerSpec]. Unknown keys are an error.
//
//	[[trigger]]
//	on = "delay"
//	delay = 1000
//
//	[[trigger]]
//	on = "visible"
//	target = "hero"
//	threshold = 0.5
func DecodeTOML(data []byte, resolver ElementResolver) ([]TriggerConfig, error) {
	var doc tomlTriggers
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, &ConfigError{Cause: fmt.Errorf(`%w: %w`, ErrInvalidField, err), Index: -1}
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigError{Cause: fmt.Errorf(`%w: unknown keys: %s`, ErrInvalidField, strings.Join(keys, `, `)), Index: -1}
	}
	return ResolveSpecs(doc.Trigger, resolver)
}

// DecodeJSON parses either a single [TriggerSpec] object, or an array of
// them. Unknown fields are an error.
func DecodeJSON(data []byte, resolver ElementResolver) ([]TriggerConfig, error) {
	data = bytes.TrimSpace(data)
	var specs []TriggerSpec
	if len(data) != 0 && data[0] == '{' {
		specs = make([]TriggerSpec, 1)
		if err := decodeJSONStrict(data, &specs[0]); err != nil {
			return nil, err
		}
	} else if err := decodeJSONStrict(data, &specs); err != nil {
		return nil, err
	}
	return ResolveSpecs(specs, resolver)
}

func decodeJSONStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ConfigError{Cause: fmt.Errorf(`%w: %w`, ErrInvalidField, err), Index: -1}
	}
	return nil
}
