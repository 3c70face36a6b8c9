package watch

import (
	"sync"
	"time"
)

// DefaultDebounce is how long a file must be quiet before its content is read.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs a single callback once its triggers have been quiet for a
// period. Each armed timer carries a generation, so a timer that fires after
// being superseded does nothing.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	pending int
}

// NewDebouncer returns a debouncer that calls fn after quiet has passed
// without a Trigger.
func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	return &Debouncer{quiet: quiet, fn: fn}
}

// Trigger arms the timer, restarting it if already armed. It returns how many
// triggers the next call will absorb.
func (d *Debouncer) Trigger() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending++
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.expire(gen) })
	return d.pending
}

// Flush disarms the timer and runs the callback on the caller's goroutine.
func (d *Debouncer) Flush() {
	d.Cancel()
	d.fn()
}

// Cancel disarms the timer. It returns how many triggers were discarded.
func (d *Debouncer) Cancel() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	dropped := d.pending
	d.pending = 0
	return dropped
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.pending = 0
	d.mu.Unlock()

	d.fn()
}
