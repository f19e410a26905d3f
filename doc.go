// Package lazyload defers a load (one or more asynchronous factories) until
// the first of several activation conditions: a delay elapses, the host is
// idle, a target becomes visible, or a target receives an event.
//
// A [Controller] composes any number of triggers, each described by a
// [TriggerConfig], with a single loader ([New]) or a batch of loaders
// ([NewBatch]). The loader set is invoked exactly once, over the controller's
// lifetime, regardless of how many triggers fire, or how many times
// [Controller.Trigger] is called. Every caller shares the same [Future].
//
// The timer, idle, event, and visibility primitives are consumed from a
// [Host], rather than implemented here. See the host subpackage, for an
// implementation with a virtual clock, DOM-style elements, and intersection
// observers.
//
// # Cancellation
//
// [Controller.Cancel] tears down every trigger, if the load has not started.
// It stops passive triggers only: a subsequent manual [Controller.Trigger]
// still starts the load. Loaders are never canceled.
//
// # Errors
//
// Invalid configuration is reported synchronously by [New], as a
// [*ConfigError]. Failure to subscribe an individual trigger does not prevent
// the others, and is reported by [Controller.Err]. Loader errors are reported
// only via the [Future], and are not retried.
package lazyload
