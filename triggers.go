// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"fmt"
	"sync"
)

// triggerFactory subscribes to the host, calling onFire when the condition is
// met. The caller guarantees onFire is safe to call more than once.
type triggerFactory func(host Host, config TriggerConfig, onFire func()) (Teardown, error)

// factoryFor maps each kind to its constructor.
func factoryFor(kind TriggerKind) triggerFactory {
	switch kind {
	case TriggerDelay:
		return newDelayTrigger
	case TriggerIdle:
		return newIdleTrigger
	case TriggerClick:
		return newEventTrigger(`click`)
	case TriggerMousemove:
		return newEventTrigger(`mousemove`)
	case TriggerElementEvent:
		return newEventTrigger(``)
	case TriggerVisible:
		return newVisibleTrigger
	default:
		return nil
	}
}

func newDelayTrigger(host Host, config TriggerConfig, onFire func()) (Teardown, error) {
	id, err := host.SetTimeout(onFire, config.Delay)
	if err != nil {
		return nil, err
	}
	return func() { host.ClearTimeout(id) }, nil
}

func newIdleTrigger(host Host, _ TriggerConfig, onFire func()) (Teardown, error) {
	// checked per trigger: availability may differ between hosts, or change
	if idle, ok := idleCapability(host); ok {
		id, err := idle.RequestIdleCallback(onFire)
		if err != nil {
			return nil, err
		}
		return func() { idle.CancelIdleCallback(id) }, nil
	}
	id, err := host.SetTimeout(onFire, IdleFallbackDelay)
	if err != nil {
		return nil, err
	}
	return func() { host.ClearTimeout(id) }, nil
}

func idleCapability(host Host) (IdleHost, bool) {
	idle, ok := host.(IdleHost)
	if !ok {
		return nil, false
	}
	if r, ok := host.(IdleReporter); ok && !r.IdleSupported() {
		return nil, false
	}
	return idle, true
}

// newEventTrigger uses config.EventName if eventName is empty.
func newEventTrigger(eventName string) triggerFactory {
	return func(_ Host, config TriggerConfig, onFire func()) (Teardown, error) {
		name := eventName
		if name == `` {
			name = config.EventName
		}
		var options ListenerOptions
		if config.EventOptions != nil {
			options = *config.EventOptions
		}
		options.Once = true
		target := config.Target
		id, err := target.AddEventListener(name, onFire, &options)
		if err != nil {
			return nil, err
		}
		return func() { target.RemoveEventListener(name, id) }, nil
	}
}

func newVisibleTrigger(host Host, config TriggerConfig, onFire func()) (Teardown, error) {
	viewport, ok := host.(ViewportHost)
	if !ok {
		return nil, fmt.Errorf(`%w: %T does not implement ViewportHost`, ErrUnsupported, host)
	}
	threshold := config.Threshold
	observer, err := viewport.NewIntersectionObserver(func(entries []IntersectionEntry, observer IntersectionObserver) {
		for _, entry := range entries {
			if entry.IsIntersecting && entry.IntersectionRatio >= threshold {
				observer.Disconnect()
				onFire()
				return
			}
		}
	}, IntersectionOptions{
		RootMargin: config.RootMargin,
		Threshold:  threshold,
	})
	if err != nil {
		return nil, err
	}
	if err := observer.Observe(config.Target); err != nil {
		observer.Disconnect()
		return nil, err
	}
	return observer.Disconnect, nil
}

// armTrigger instantiates a single trigger, guarding onFire and the teardown
// such that each may only take effect once.
func armTrigger(host Host, config TriggerConfig, onFire func()) (Teardown, error) {
	factory := factoryFor(config.On)
	if factory == nil {
		return nil, configError(ErrUnknownTrigger, config.On, ``)
	}
	var (
		mu    sync.Mutex
		fired bool
	)
	teardown, err := factory(host, config, func() {
		mu.Lock()
		if fired {
			mu.Unlock()
			return
		}
		fired = true
		mu.Unlock()
		onFire()
	})
	if err != nil {
		return nil, err
	}
	if teardown == nil {
		return func() {}, nil
	}
	return sync.OnceFunc(teardown), nil
}
