// Package window provides a fixed-capacity FIFO buffer of price points.
package window

import "chartfeed/internal/model"

// DefaultCapacity bounds a live session's series to the most recent points.
const DefaultCapacity = 100

// Window is a circular buffer of PricePoint with strict FIFO eviction:
// pushing into a full window overwrites the oldest point.
//
// Not safe for concurrent use — a window is exclusively owned by the session
// that feeds it.
type Window struct {
	buf  []model.PricePoint
	pos  int // next write position
	full bool
}

// New creates a window with the given capacity. Non-positive capacities fall
// back to DefaultCapacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]model.PricePoint, capacity)}
}

// Push appends a point, evicting the oldest when full.
func (w *Window) Push(p model.PricePoint) {
	w.buf[w.pos] = p
	w.pos = (w.pos + 1) % len(w.buf)
	if w.pos == 0 && !w.full {
		w.full = true
	}
}

// Len returns the number of points currently held.
func (w *Window) Len() int {
	if w.full {
		return len(w.buf)
	}
	return w.pos
}

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Last returns the most recently pushed point, or false when empty.
func (w *Window) Last() (model.PricePoint, bool) {
	if w.Len() == 0 {
		return model.PricePoint{}, false
	}
	idx := (w.pos - 1 + len(w.buf)) % len(w.buf)
	return w.buf[idx], true
}

// Points returns an ordered copy, oldest first. The copy is safe for the
// caller to hold across further pushes.
func (w *Window) Points() []model.PricePoint {
	n := w.Len()
	out := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		out[i] = w.buf[w.index(i)]
	}
	return out
}

// index converts a logical index (0 = oldest) to a physical buffer index.
func (w *Window) index(logical int) int {
	if w.full {
		return (w.pos + logical) % len(w.buf)
	}
	return logical
}
