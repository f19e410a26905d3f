// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joeycumines/go-lazyload"
)

// Window combines a [Loop] and a [Viewport], with a registry of elements by
// ID. It implements every host capability consumed by lazyload, as well as
// [lazyload.ElementResolver].
type Window struct {
	*Loop
	*Viewport
	elements map[string]*Element
	mu       sync.Mutex
}

var (
	_ lazyload.Host            = (*Window)(nil)
	_ lazyload.IdleHost        = (*Window)(nil)
	_ lazyload.IdleReporter    = (*Window)(nil)
	_ lazyload.ViewportHost    = (*Window)(nil)
	_ lazyload.ElementResolver = (*Window)(nil)
)

// NewWindow creates a window, with a viewport of the given size.
func NewWindow(width, height float64, opts ...LoopOption) (*Window, error) {
	loop, err := New(opts...)
	if err != nil {
		return nil, err
	}
	viewport, err := NewViewport(loop, width, height)
	if err != nil {
		return nil, err
	}
	return &Window{
		Loop:     loop,
		Viewport: viewport,
		elements: make(map[string]*Element),
	}, nil
}

// CreateElement adds an element, positioned at rect. IDs must be unique.
func (w *Window) CreateElement(id string, rect Rect) (*Element, error) {
	if id == `` {
		return nil, errors.New(`host: empty element id`)
	}
	w.mu.Lock()
	if _, ok := w.elements[id]; ok {
		w.mu.Unlock()
		return nil, fmt.Errorf(`host: duplicate element id: %q`, id)
	}
	element := NewElement(id)
	w.elements[id] = element
	w.mu.Unlock()
	w.SetRect(element, rect)
	return element, nil
}

// Element returns the element with the given ID, or nil.
func (w *Window) Element(id string) *Element {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elements[id]
}

// ElementByID implements [lazyload.ElementResolver].
func (w *Window) ElementByID(id string) (lazyload.EventTarget, bool) {
	if element := w.Element(id); element != nil {
		return element, true
	}
	return nil, false
}
