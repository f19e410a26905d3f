// Package host implements the collaborators consumed by lazyload: a
// single-threaded [Loop] with timers and idle callbacks, over a virtual
// clock, DOM-style [Element] event targets, and a [Viewport] supporting
// [IntersectionObserver].
//
// The virtual clock makes trigger behavior deterministic, e.g.
//
//	w, _ := host.NewWindow(800, 600)
//	hero, _ := w.CreateElement("hero", host.Rect{Y: 1200, Width: 800, Height: 400})
//	c, _ := lazyload.New(nil, w, load, lazyload.Visible(hero, "", 0), lazyload.Delay(5*time.Second))
//	w.ScrollTo(0, 900)
//	w.RunPending() // hero is now visible, and the load has started
//
// [Loop.Run] drives the same loop from the wall clock. Elements build on
// [eventloop.EventTarget], and listener signals are [eventloop.AbortSignal]
// values. [Realtime] adapts a running [eventloop.JS] runtime, for wall clock
// timers without the virtual clock.
package host
