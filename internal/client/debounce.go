package client

import (
	"sync"
	"sync/atomic"
	"time"
)

// Debouncer runs only the last function triggered within its delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

// NewDebouncer creates a debouncer. A delay of zero runs triggered functions immediately.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any function still waiting.
func (d *Debouncer) Trigger(fn func()) {
	if d.delay <= 0 {
		d.Stop()
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	d.pending = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the waiting function now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop discards the waiting function.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.take()
	d.mu.Unlock()
}

// take clears the pending function and invalidates its timer. Callers hold mu.
func (d *Debouncer) take() func() {
	fn := d.pending
	d.pending = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}

// Sequencer numbers requests so only the latest response is applied.
type Sequencer struct {
	n atomic.Uint64
}

// Next issues a new sequence number, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// IsLatest reports whether n is the most recently issued number.
func (s *Sequencer) IsLatest(n uint64) bool {
	return s.n.Load() == n
}
