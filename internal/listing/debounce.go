package listing

import (
	"sync"
	"time"
)

// DefaultDebounce is the search debounce interval.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delivers the last pushed value once no new value arrived for the
// configured delay. At most one timer is outstanding.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	seq     uint64
	stopped bool
	running sync.WaitGroup
}

// NewDebouncer returns a Debouncer calling fn. A non-positive delay uses
// DefaultDebounce.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	return &Debouncer[T]{delay: delay, fn: fn}
}

// Push records v and restarts the timer. Pushes after Stop are ignored.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopTimerLocked()

	d.seq++
	d.pending = v
	d.has = true

	seq := d.seq

	d.running.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.running.Done()
		d.fire(seq)
	})
}

// Pending reports whether a value is waiting for the timer.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.has
}

// Flush delivers the pending value immediately, if any, on the calling goroutine.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()

	if d.stopped || !d.has {
		d.mu.Unlock()

		return
	}

	d.stopTimerLocked()
	d.seq++

	v := d.pending
	d.clearLocked()
	d.mu.Unlock()

	d.fn(v)
}

// Cancel drops the pending value without stopping the debouncer.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopTimerLocked()
	d.seq++
	d.clearLocked()
}

// Stop cancels the pending value and waits for a callback already running.
// It must not be called from the callback itself.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.stopTimerLocked()
	d.seq++
	d.clearLocked()
	d.mu.Unlock()

	d.running.Wait()
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()

	if d.stopped || seq != d.seq || !d.has {
		d.mu.Unlock()

		return
	}

	v := d.pending
	d.timer = nil
	d.clearLocked()
	d.mu.Unlock()

	d.fn(v)
}

// stopTimerLocked stops the outstanding timer. When the timer had not fired
// yet its callback never runs, so its WaitGroup slot is released here.
func (d *Debouncer[T]) stopTimerLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.running.Done()
	}

	d.timer = nil
}

func (d *Debouncer[T]) clearLocked() {
	var zero T

	d.pending = zero
	d.has = false
}
