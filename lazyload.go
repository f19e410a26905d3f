// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"context"
	"errors"

	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

type (
	// Loader is an asynchronous factory, producing the deferred value.
	// The context is Config.Context, and is never canceled by this package.
	Loader[T any] func(ctx context.Context) (T, error)

	// Config models optional configuration, for New and NewBatch.
	Config struct {
		// Context is passed to loaders.
		// **Defaults to context.Background(), if nil, or Config is nil.**
		Context context.Context

		// Logger receives structured logs. Logging is disabled if nil.
		Logger *logiface.Logger[logiface.Event]

		// OnActivate, if set, is called synchronously, exactly once, when the
		// load begins. Index and kind identify the trigger that fired, or are
		// -1 and empty for a manual trigger.
		OnActivate func(index int, kind TriggerKind)
	}

	// Controller defers a load until the first of its triggers fire, or it is
	// triggered manually. Instances must be initialized using New or
	// NewBatch, and are safe for concurrent use.
	Controller[T any] struct {
		coordinator *coordinator[T]
		err         error
	}
)

// New initializes a [Controller] for a single loader. At least one trigger
// must be provided. The provided config may be nil.
//
// A [*ConfigError] is returned if any trigger config is invalid, prior to any
// host subscription. Host subscription failures are isolated, see
// [Controller.Err].
func New[T any](config *Config, host Host, loader Loader[T], triggers ...TriggerConfig) (*Controller[T], error) {
	if loader == nil {
		return nil, configError(ErrMissingField, ``, `loader`)
	}
	return newController(config, host, loader, triggers)
}

// NewBatch initializes a [Controller] for a loader set, treated as a single
// unit. All loaders start concurrently, once activated, and the result
// preserves the order of loaders. The first loader error (if any) is the
// result, and the remaining loaders are not canceled.
func NewBatch[T any](config *Config, host Host, loaders []Loader[T], triggers ...TriggerConfig) (*Controller[[]T], error) {
	if len(loaders) == 0 {
		return nil, configError(ErrMissingField, ``, `loaders`)
	}
	for _, loader := range loaders {
		if loader == nil {
			return nil, configError(ErrMissingField, ``, `loaders`)
		}
	}
	loaders = append([]Loader[T](nil), loaders...)
	return newController(config, host, batchLoader(loaders), triggers)
}

func batchLoader[T any](loaders []Loader[T]) Loader[[]T] {
	return func(ctx context.Context) ([]T, error) {
		results := make([]T, len(loaders))
		// note: not errgroup.WithContext, siblings must not be canceled
		var g errgroup.Group
		for i, loader := range loaders {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &PanicError{Value: r}
					}
				}()
				results[i], err = loader(ctx)
				return
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}
}

func newController[T any](config *Config, host Host, loader Loader[T], triggers []TriggerConfig) (*Controller[T], error) {
	if host == nil {
		return nil, configError(ErrMissingField, ``, `host`)
	}
	if len(triggers) == 0 {
		return nil, configError(ErrMissingField, ``, `triggers`)
	}
	for i, trigger := range triggers {
		if err := trigger.validate(); err != nil {
			err.Index = i
			return nil, err
		}
	}

	c := &coordinator[T]{
		ctx:    context.Background(),
		loader: loader,
	}
	if config != nil {
		if config.Context != nil {
			c.ctx = config.Context
		}
		c.logger = config.Logger
		c.onActivate = config.OnActivate
	}

	x := Controller[T]{coordinator: c}

	var errs []error
	for i, trigger := range triggers {
		teardown, err := armTrigger(host, trigger, func() { c.fire(i, trigger.On) })
		if err != nil {
			c.logger.Warning().
				Int(`trigger`, i).
				Str(`on`, string(trigger.On)).
				Err(err).
				Log(`lazyload: trigger setup failed`)
			errs = append(errs, &TriggerError{Cause: err, Kind: trigger.On, Index: i})
			continue
		}
		c.logger.Debug().
			Int(`trigger`, i).
			Str(`on`, string(trigger.On)).
			Log(`lazyload: trigger armed`)
		c.adopt(teardown)
	}
	x.err = errors.Join(errs...)

	return &x, nil
}

// Trigger starts the load, if it has not already started, returning the
// memoized [Future]. It is honored even after [Controller.Cancel].
func (x *Controller[T]) Trigger() *Future[T] {
	return x.coordinator.load()
}

// TriggerContext is a convenience, calling Trigger, then [Future.Await].
func (x *Controller[T]) TriggerContext(ctx context.Context) (T, error) {
	return x.Trigger().Await(ctx)
}

// Cancel tears down all triggers, if no load has started, such that only a
// manual [Controller.Trigger] may start the load. It is otherwise a no-op.
func (x *Controller[T]) Cancel() {
	x.coordinator.cancel()
}

// HasLoaded returns true from the moment the load is activated, regardless
// of whether it has completed, or succeeded.
func (x *Controller[T]) HasLoaded() bool {
	return x.coordinator.hasLoaded()
}

// State returns the current [State].
func (x *Controller[T]) State() State {
	return x.coordinator.getState()
}

// Err returns the joined [*TriggerError] values, for any triggers that could
// not be established, or nil. The remaining triggers are unaffected.
func (x *Controller[T]) Err() error {
	return x.err
}
