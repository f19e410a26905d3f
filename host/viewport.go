// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/joeycumines/go-lazyload"
)

// Viewport models a scrollable root, against which [IntersectionObserver]
// computes visibility of [Element] rectangles. It implements
// [lazyload.ViewportHost].
//
// Geometry changes ([Viewport.SetRect], [Viewport.ScrollTo],
// [Viewport.Resize]) schedule a single notification task on the loop, which
// delivers entries to each observer whose targets changed state.
type Viewport struct {
	loop      *Loop
	observers []*IntersectionObserver
	root      Rect
	mu        sync.Mutex
	scheduled bool
}

var _ lazyload.ViewportHost = (*Viewport)(nil)

// NewViewport creates a viewport of the given size, scrolled to the origin.
func NewViewport(loop *Loop, width, height float64) (*Viewport, error) {
	if loop == nil {
		return nil, errors.New(`host: nil loop`)
	}
	if err := validateSize(width, height); err != nil {
		return nil, err
	}
	return &Viewport{
		loop: loop,
		root: Rect{Width: width, Height: height},
	}, nil
}

func validateSize(width, height float64) error {
	if !(width >= 0) || !(height >= 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return fmt.Errorf(`host: invalid viewport size: %vx%v`, width, height)
	}
	return nil
}

// Root returns the visible area, in document coordinates.
func (v *Viewport) Root() Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// ScrollTo moves the visible area to (x, y).
func (v *Viewport) ScrollTo(x, y float64) {
	v.mu.Lock()
	v.root.X, v.root.Y = x, y
	v.mu.Unlock()
	v.schedule()
}

// Resize changes the size of the visible area.
func (v *Viewport) Resize(width, height float64) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	v.mu.Lock()
	v.root.Width, v.root.Height = width, height
	v.mu.Unlock()
	v.schedule()
	return nil
}

// SetRect moves or resizes an element.
func (v *Viewport) SetRect(element *Element, rect Rect) {
	element.setRect(rect)
	v.schedule()
}

// NewIntersectionObserver implements [lazyload.ViewportHost].
func (v *Viewport) NewIntersectionObserver(callback lazyload.IntersectionCallback, options lazyload.IntersectionOptions) (lazyload.IntersectionObserver, error) {
	return v.Observer(callback, options)
}

// Observer is [Viewport.NewIntersectionObserver], returning the concrete type.
func (v *Viewport) Observer(callback lazyload.IntersectionCallback, options lazyload.IntersectionOptions) (*IntersectionObserver, error) {
	if callback == nil {
		return nil, ErrNilCallback
	}
	margin, err := lazyload.ParseRootMargin(options.RootMargin)
	if err != nil {
		return nil, err
	}
	if !(options.Threshold >= 0 && options.Threshold <= 1) {
		return nil, fmt.Errorf(`host: invalid threshold: %v`, options.Threshold)
	}
	o := &IntersectionObserver{
		viewport:  v,
		callback:  callback,
		margin:    margin,
		threshold: options.Threshold,
	}
	v.mu.Lock()
	v.observers = append(v.observers, o)
	v.mu.Unlock()
	return o, nil
}

func (v *Viewport) remove(o *IntersectionObserver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := slices.Index(v.observers, o); i >= 0 {
		v.observers = slices.Delete(v.observers, i, i+1)
	}
}

func (v *Viewport) schedule() {
	v.mu.Lock()
	if v.scheduled {
		v.mu.Unlock()
		return
	}
	v.scheduled = true
	v.mu.Unlock()
	if err := v.loop.Submit(v.notify); err != nil {
		v.mu.Lock()
		v.scheduled = false
		v.mu.Unlock()
	}
}

// notify runs on the loop, delivering entries to each observer
func (v *Viewport) notify() {
	v.mu.Lock()
	v.scheduled = false
	root := v.root
	observers := slices.Clone(v.observers)
	v.mu.Unlock()
	for _, o := range observers {
		if entries := o.collect(root); len(entries) != 0 {
			o.callback(entries, o)
		}
	}
}

// IntersectionObserver reports changes in the intersection of its targets
// with the [Viewport] root, expanded by the root margin. Each target's first
// entry is always delivered, after which entries are delivered only when
// either IsIntersecting or ratio >= threshold changes.
type IntersectionObserver struct {
	viewport     *Viewport
	callback     lazyload.IntersectionCallback
	targets      []*observation
	margin       lazyload.RootMargin
	threshold    float64
	mu           sync.Mutex
	disconnected bool
}

var _ lazyload.IntersectionObserver = (*IntersectionObserver)(nil)

type observation struct {
	target       *Element
	delivered    bool
	intersecting bool
	reached      bool
}

// Observe implements [lazyload.IntersectionObserver]. The target must be an
// [*Element]. Observing a target twice has no effect.
func (o *IntersectionObserver) Observe(target lazyload.EventTarget) error {
	element, ok := target.(*Element)
	if !ok || element == nil {
		return fmt.Errorf(`%w: %T`, ErrUnsupportedTarget, target)
	}
	o.mu.Lock()
	if o.disconnected {
		o.mu.Unlock()
		return ErrObserverDisconnected
	}
	if !slices.ContainsFunc(o.targets, func(x *observation) bool { return x.target == element }) {
		o.targets = append(o.targets, &observation{target: element})
	}
	o.mu.Unlock()
	o.viewport.schedule()
	return nil
}

// Unobserve stops observing target.
func (o *IntersectionObserver) Unobserve(target *Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.targets = slices.DeleteFunc(o.targets, func(x *observation) bool { return x.target == target })
}

// Disconnect implements [lazyload.IntersectionObserver]. Idempotent.
func (o *IntersectionObserver) Disconnect() {
	o.mu.Lock()
	if o.disconnected {
		o.mu.Unlock()
		return
	}
	o.disconnected = true
	o.targets = nil
	o.mu.Unlock()
	o.viewport.remove(o)
}

// Disconnected reports whether Disconnect has been called.
func (o *IntersectionObserver) Disconnected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disconnected
}

// collect computes pending entries, updating the observation state
func (o *IntersectionObserver) collect(root Rect) []lazyload.IntersectionEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disconnected {
		return nil
	}
	bounds := Rect{
		X:      root.X - o.margin.Left.Resolve(root.Width),
		Y:      root.Y - o.margin.Top.Resolve(root.Height),
		Width:  root.Width + o.margin.Left.Resolve(root.Width) + o.margin.Right.Resolve(root.Width),
		Height: root.Height + o.margin.Top.Resolve(root.Height) + o.margin.Bottom.Resolve(root.Height),
	}
	var entries []lazyload.IntersectionEntry
	for _, x := range o.targets {
		intersecting, ratio := Intersect(bounds, x.target.Rect())
		reached := intersecting && ratio >= o.threshold
		if x.delivered && x.intersecting == intersecting && x.reached == reached {
			continue
		}
		x.delivered, x.intersecting, x.reached = true, intersecting, reached
		entries = append(entries, lazyload.IntersectionEntry{
			Target:            x.target,
			IntersectionRatio: ratio,
			IsIntersecting:    intersecting,
		})
	}
	return entries
}

// Intersect computes whether target intersects root, and the ratio of the
// target's area that is within root. Edge-adjacent rectangles intersect,
// with a ratio of 0, unless the target has no area, in which case the ratio
// is 1.
func Intersect(root, target Rect) (intersecting bool, ratio float64) {
	w := math.Min(root.X+root.Width, target.X+target.Width) - math.Max(root.X, target.X)
	h := math.Min(root.Y+root.Height, target.Y+target.Height) - math.Max(root.Y, target.Y)
	if w < 0 || h < 0 || root.Width < 0 || root.Height < 0 {
		return false, 0
	}
	area := target.Width * target.Height
	if area <= 0 {
		return true, 1
	}
	return true, math.Min((w*h)/area, 1)
}
