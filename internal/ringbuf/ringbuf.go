// Package ringbuf provides a fixed-capacity rolling window of float64 values
// backed by a preallocated circular buffer. It is the storage behind every
// windowed indicator (SMA, Bollinger deviation, rolling volatility).
//
// A Window is not safe for concurrent use; each indicator instance owns one.
package ringbuf

import "math"

// Window holds the most recent Cap() values pushed into it.
type Window struct {
	buf   []float64
	idx   int // next write position
	count int // values currently held (<= len(buf))
}

// New creates a window of the given size. Minimum size is 1.
func New(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{buf: make([]float64, size)}
}

// Push appends v, evicting the oldest value once the window is full.
// Returns the evicted value and whether an eviction happened.
func (w *Window) Push(v float64) (evicted float64, ok bool) {
	if w.count == len(w.buf) {
		evicted, ok = w.buf[w.idx], true
	} else {
		w.count++
	}
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % len(w.buf)
	return evicted, ok
}

// Len returns the number of values currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the window size.
func (w *Window) Cap() int { return len(w.buf) }

// Full reports whether the window holds Cap() values.
func (w *Window) Full() bool { return w.count == len(w.buf) }

// at returns the i-th held value, oldest first.
func (w *Window) at(i int) float64 {
	start := (w.idx - w.count + len(w.buf)) % len(w.buf)
	return w.buf[(start+i)%len(w.buf)]
}

// Sum returns the sum of held values.
func (w *Window) Sum() float64 {
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.at(i)
	}
	return sum
}

// Mean returns the average of held values, NaN when empty. A window of
// identical values returns that value exactly.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return math.NaN()
	}
	first := w.at(0)
	constant := true
	var sum float64
	for i := 0; i < w.count; i++ {
		v := w.at(i)
		if v != first {
			constant = false
		}
		sum += v
	}
	if constant {
		return first
	}
	mean := sum / float64(w.count)
	var resid float64
	for i := 0; i < w.count; i++ {
		resid += w.at(i) - mean
	}
	return mean + resid/float64(w.count)
}

// Std returns the standard deviation of held values with the given delta
// degrees of freedom (0 = population, 1 = sample). NaN if count <= ddof.
func (w *Window) Std(ddof int) float64 {
	if w.count <= ddof {
		return math.NaN()
	}
	mean := w.Mean()
	var ss float64
	for i := 0; i < w.count; i++ {
		d := w.at(i) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(w.count-ddof))
}

// Oldest returns the oldest held value. ok is false when empty.
func (w *Window) Oldest() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	start := (w.idx - w.count + len(w.buf)) % len(w.buf)
	return w.buf[start], true
}

// Values returns the held values oldest first. The slice is a copy.
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	for i := range out {
		out[i] = w.at(i)
	}
	return out
}

// Reset clears the window for reuse.
func (w *Window) Reset() {
	w.idx = 0
	w.count = 0
	for i := range w.buf {
		w.buf[i] = 0
	}
}
