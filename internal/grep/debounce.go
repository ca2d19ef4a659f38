package grep

import (
	"time"
)

// DefaultDebounce is the minimum spacing between two searches.
const DefaultDebounce = time.Second

// Debouncer spaces out searches triggered by input changes. A change arriving
// sooner than the interval after the last accepted one is re-checked once
// the interval has passed, and only runs if the input still holds the value
// it was scheduled with. At most one check is pending; a newer change
// replaces it.
type Debouncer struct {
	interval  time.Duration
	post      func(func())
	nowFunc   func() time.Time
	afterFunc func(time.Duration, func()) func() bool

	last time.Time
	// gen identifies the pending check; bumping it orphans checks already
	// posted to the loop.
	gen  int
	stop func() bool
}

// DebounceOption customises a Debouncer.
type DebounceOption func(*Debouncer)

// WithClock replaces the time source and timer used by the debouncer.
func WithClock(now func() time.Time, after func(time.Duration, func()) func() bool) DebounceOption {
	return func(d *Debouncer) {
		d.nowFunc = now
		d.afterFunc = after
	}
}

// NewDebouncer creates a debouncer. Deferred checks are delivered through
// post so they run on the caller's event loop.
func NewDebouncer(interval time.Duration, post func(func()), opts ...DebounceOption) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	d := &Debouncer{
		interval: interval,
		post:     post,
		nowFunc:  time.Now,
		afterFunc: func(dur time.Duration, fn func()) func() bool {
			return time.AfterFunc(dur, fn).Stop
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reset cancels pending checks and starts the interval afresh, as if a search
// had just run.
func (d *Debouncer) Reset() {
	d.Stop()
	d.last = d.nowFunc()
}

// Stop cancels pending checks.
func (d *Debouncer) Stop() {
	d.gen++
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
}

// Trigger runs run(value) now if the interval has passed since the last
// accepted run. Otherwise it schedules a check for when it will have; the
// check runs run(value) only if current() still returns value.
func (d *Debouncer) Trigger(value string, current func() string, run func(string)) {
	elapsed := d.nowFunc().Sub(d.last)
	if elapsed >= d.interval {
		d.last = d.nowFunc()
		run(value)
		return
	}

	d.Stop()
	gen := d.gen
	d.stop = d.afterFunc(d.interval-elapsed, func() {
		d.post(func() {
			if gen != d.gen {
				return
			}
			d.stop = nil
			if current() != value || d.nowFunc().Sub(d.last) < d.interval {
				return
			}
			d.last = d.nowFunc()
			run(value)
		})
	})
}
