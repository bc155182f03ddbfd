// Package scheduler provides the trailing debounce that sits between editor
// keystrokes and the expensive preview/persist cycle.
package scheduler

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the pause after the last edit before a commit fires
const DefaultQuietPeriod = 300 * time.Millisecond

// Debouncer runs the most recently scheduled action once input has been
// quiet for the configured period. At most one action is pending.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	seq     uint64
	stopped bool
}

// New creates a debouncer; a non-positive quiet period uses the default.
func New(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet}
}

// QuietPeriod returns the configured delay
func (d *Debouncer) QuietPeriod() time.Duration {
	return d.quiet
}

// Schedule cancels any pending action and arms fn to run after the quiet
// period.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.quiet, func() {
		d.fire(seq)
	})
}

// fire runs the pending action unless it was superseded after the timer
// already started.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending action now, if any, and reports whether it did.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	if fn == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = nil
	d.mu.Unlock()

	fn()
	return true
}

// Cancel drops the pending action without running it
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = nil
}

// Pending reports whether an action is waiting
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending action and rejects future schedules
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
