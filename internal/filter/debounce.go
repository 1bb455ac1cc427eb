package filter

import (
	"sync"
	"time"
)

// Debouncer delays a call until no new call has arrived for the wait period.
// Each Call replaces the pending function; only the last one runs.
type Debouncer struct {
	wait  time.Duration
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
	wg    sync.WaitGroup
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Call schedules fn, cancelling any call still pending.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.seq++
	seq := d.seq
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.wait, func() {
		defer d.wg.Done()
		d.mu.Lock()
		stale := seq != d.seq
		d.mu.Unlock()
		if !stale {
			fn()
		}
	})
}

// cancelLocked stops the pending timer. A timer that already fired releases
// its own WaitGroup slot when its callback returns.
func (d *Debouncer) cancelLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}

// Stop cancels the pending call, if any. A call already running is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.seq++
}

// Wait blocks until every scheduled call has either been cancelled or returned.
// It must not run concurrently with Call.
func (d *Debouncer) Wait() {
	d.wg.Wait()
}
