package storage

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled write once the delay has passed
// without another Schedule call. A delay of zero or less writes synchronously.
type Debouncer struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

func (d *Debouncer) Schedule(write func()) {
	d.mu.Lock()
	d.cancelLocked()
	if d.delay <= 0 {
		d.runLocked(write)
		return
	}
	d.pending = write
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Flush runs a pending write immediately. It returns only after any write
// already in progress has finished.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	write := d.pending
	d.cancelLocked()
	d.runLocked(write)
}

// Stop discards a pending write and waits for one in progress.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.runLocked(nil)
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	write := d.pending
	d.pending = nil
	d.timer = nil
	d.runLocked(write)
}

// runLocked is called with d.mu held. The write lock is taken before d.mu is
// released, so a later Flush or Stop cannot return while this write runs.
func (d *Debouncer) runLocked(write func()) {
	d.writeMu.Lock()
	d.mu.Unlock()
	defer d.writeMu.Unlock()
	if write != nil {
		write()
	}
}
