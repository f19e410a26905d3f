package host

import (
	"testing"

	"github.com/joeycumines/go-lazyload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersect(t *testing.T) {
	root := Rect{Width: 100, Height: 100}
	for _, tc := range []struct {
		name         string
		target       Rect
		intersecting bool
		ratio        float64
	}{
		{`inside`, Rect{X: 10, Y: 10, Width: 10, Height: 10}, true, 1},
		{`half`, Rect{X: 90, Y: 0, Width: 20, Height: 10}, true, 0.5},
		{`quarter`, Rect{X: -10, Y: -10, Width: 20, Height: 20}, true, 0.25},
		{`edge adjacent`, Rect{X: 100, Y: 0, Width: 10, Height: 10}, true, 0},
		{`outside`, Rect{X: 101, Y: 0, Width: 10, Height: 10}, false, 0},
		{`zero area inside`, Rect{X: 50, Y: 50}, true, 1},
		{`zero area outside`, Rect{X: 150, Y: 50}, false, 0},
		{`covering`, Rect{X: -100, Y: -100, Width: 400, Height: 400}, true, 1.0 / 16},
	} {
		t.Run(tc.name, func(t *testing.T) {
			intersecting, ratio := Intersect(root, tc.target)
			assert.Equal(t, tc.intersecting, intersecting)
			assert.InDelta(t, tc.ratio, ratio, 1e-9)
		})
	}
	intersecting, _ := Intersect(Rect{Width: -1, Height: 10}, Rect{Width: 1, Height: 1})
	assert.False(t, intersecting)
}

type recorder struct {
	batches [][]lazyload.IntersectionEntry
}

func (x *recorder) callback(entries []lazyload.IntersectionEntry, _ lazyload.IntersectionObserver) {
	x.batches = append(x.batches, entries)
}

func (x *recorder) last() lazyload.IntersectionEntry {
	batch := x.batches[len(x.batches)-1]
	return batch[len(batch)-1]
}

func newTestWindow(t *testing.T) *Window {
	t.Helper()
	w, err := NewWindow(100, 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestIntersectionObserver_deliversOnChange(t *testing.T) {
	w := newTestWindow(t)
	el, err := w.CreateElement(`el`, Rect{Y: 200, Width: 10, Height: 10})
	require.NoError(t, err)

	var r recorder
	o, err := w.Observer(r.callback, lazyload.IntersectionOptions{Threshold: 0.5})
	require.NoError(t, err)
	require.NoError(t, o.Observe(el))
	require.NoError(t, o.Observe(el))
	assert.Empty(t, r.batches, `delivery is asynchronous`)

	w.RunPending()
	require.Len(t, r.batches, 1, `initial entry is always delivered`)
	assert.Equal(t, lazyload.IntersectionEntry{Target: el}, r.last())

	// no change
	w.ScrollTo(0, 50)
	w.RunPending()
	assert.Len(t, r.batches, 1)

	// intersecting, below threshold
	w.ScrollTo(0, 102)
	w.RunPending()
	require.Len(t, r.batches, 2)
	assert.True(t, r.last().IsIntersecting)
	assert.InDelta(t, 0.2, r.last().IntersectionRatio, 1e-9)

	// ratio changes, but not the threshold side
	w.ScrollTo(0, 103)
	w.RunPending()
	assert.Len(t, r.batches, 2)

	// threshold reached
	w.ScrollTo(0, 200)
	w.RunPending()
	require.Len(t, r.batches, 3)
	assert.InDelta(t, 1, r.last().IntersectionRatio, 1e-9)

	// geometry changes are coalesced
	w.SetRect(el, Rect{Y: 1000, Width: 10, Height: 10})
	w.ScrollTo(0, 0)
	w.RunPending()
	require.Len(t, r.batches, 4)
	assert.False(t, r.last().IsIntersecting)
}

func TestIntersectionObserver_rootMargin(t *testing.T) {
	w := newTestWindow(t)
	el, err := w.CreateElement(`el`, Rect{X: 120, Y: 0, Width: 10, Height: 10})
	require.NoError(t, err)

	var r recorder
	o, err := w.Observer(r.callback, lazyload.IntersectionOptions{RootMargin: `0 20%`})
	require.NoError(t, err)
	require.NoError(t, o.Observe(el))
	w.RunPending()
	require.Len(t, r.batches, 1)
	assert.True(t, r.last().IsIntersecting)

	require.NoError(t, w.Resize(50, 100))
	w.RunPending()
	require.Len(t, r.batches, 2)
	assert.False(t, r.last().IsIntersecting)
}

func TestIntersectionObserver_disconnect(t *testing.T) {
	w := newTestWindow(t)
	el, err := w.CreateElement(`el`, Rect{Width: 10, Height: 10})
	require.NoError(t, err)

	var calls int
	o, err := w.Observer(func(entries []lazyload.IntersectionEntry, observer lazyload.IntersectionObserver) {
		calls++
		observer.Disconnect()
	}, lazyload.IntersectionOptions{})
	require.NoError(t, err)
	require.NoError(t, o.Observe(el))
	w.RunPending()
	assert.Equal(t, 1, calls)
	assert.True(t, o.Disconnected())
	o.Disconnect()

	w.ScrollTo(0, 1000)
	w.RunPending()
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, o.Observe(el), ErrObserverDisconnected)
}

func TestIntersectionObserver_unobserve(t *testing.T) {
	w := newTestWindow(t)
	a, err := w.CreateElement(`a`, Rect{Width: 10, Height: 10})
	require.NoError(t, err)
	b, err := w.CreateElement(`b`, Rect{Width: 10, Height: 10})
	require.NoError(t, err)

	var r recorder
	o, err := w.Observer(r.callback, lazyload.IntersectionOptions{})
	require.NoError(t, err)
	require.NoError(t, o.Observe(a))
	require.NoError(t, o.Observe(b))
	o.Unobserve(a)
	w.RunPending()
	require.Len(t, r.batches, 1)
	require.Len(t, r.batches[0], 1)
	assert.Same(t, b, r.batches[0][0].Target)
}

func TestIntersectionObserver_invalid(t *testing.T) {
	w := newTestWindow(t)
	_, err := w.NewIntersectionObserver(nil, lazyload.IntersectionOptions{})
	assert.ErrorIs(t, err, ErrNilCallback)
	_, err = w.NewIntersectionObserver(func([]lazyload.IntersectionEntry, lazyload.IntersectionObserver) {}, lazyload.IntersectionOptions{RootMargin: `5em`})
	assert.ErrorIs(t, err, lazyload.ErrInvalidField)
	_, err = w.NewIntersectionObserver(func([]lazyload.IntersectionEntry, lazyload.IntersectionObserver) {}, lazyload.IntersectionOptions{Threshold: 2})
	assert.Error(t, err)

	o, err := w.Observer(func([]lazyload.IntersectionEntry, lazyload.IntersectionObserver) {}, lazyload.IntersectionOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, o.Observe(nil), ErrUnsupportedTarget)
	var nilElement *Element
	assert.ErrorIs(t, o.Observe(nilElement), ErrUnsupportedTarget)
}

func TestViewport_invalidSize(t *testing.T) {
	l := newTestLoop(t)
	_, err := NewViewport(l, -1, 10)
	assert.Error(t, err)
	_, err = NewViewport(nil, 1, 10)
	assert.Error(t, err)
	v, err := NewViewport(l, 1, 10)
	require.NoError(t, err)
	assert.Error(t, v.Resize(1, -10))
	assert.Equal(t, Rect{Width: 1, Height: 10}, v.Root())

	_, err = NewWindow(-1, 1)
	assert.Error(t, err)
}

func TestWindow_elements(t *testing.T) {
	w := newTestWindow(t)
	el, err := w.CreateElement(`x`, Rect{X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, el.Rect())
	assert.Same(t, el, w.Element(`x`))

	target, ok := w.ElementByID(`x`)
	assert.True(t, ok)
	assert.Same(t, el, target)
	_, ok = w.ElementByID(`y`)
	assert.False(t, ok)

	_, err = w.CreateElement(`x`, Rect{})
	assert.Error(t, err)
	_, err = w.CreateElement(``, Rect{})
	assert.Error(t, err)
}
