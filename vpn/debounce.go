package vpn

import (
	"sync"
	"time"
)

// Debouncer turns raw activations into exactly one single or double action
// per window.
//
// The first Activate arms a one-shot timer of the window length. A second
// Activate before it fires cancels it and runs onDouble at once; otherwise
// the timer runs onSingle. Callbacks run outside the lock.
type Debouncer struct {
	window   time.Duration
	clock    Clock
	onSingle func()
	onDouble func()

	mu    sync.Mutex
	armed bool
	gen   uint64
	timer Timer
}

// NewDebouncer creates a Debouncer. Nil callbacks are no-ops.
func NewDebouncer(window time.Duration, clock Clock, onSingle, onDouble func()) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	if onSingle == nil {
		onSingle = func() {}
	}
	if onDouble == nil {
		onDouble = func() {}
	}
	return &Debouncer{
		window:   window,
		clock:    clock,
		onSingle: onSingle,
		onDouble: onDouble,
	}
}

// Activate records one raw activation.
func (d *Debouncer) Activate() {
	d.mu.Lock()
	if d.armed {
		d.disarm()
		d.mu.Unlock()
		d.onDouble()
		return
	}

	d.armed = true
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.expire(gen) })
	d.mu.Unlock()
}

// Pending reports whether a first activation is waiting for its window.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop discards a pending activation without running either callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed {
		d.disarm()
	}
}

// expire runs onSingle unless the activation of generation gen was already
// consumed by a second activation or Stop.
func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if !d.armed || d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.armed = false
	d.timer = nil
	d.mu.Unlock()

	d.onSingle()
}

// disarm cancels the pending timer. Callers hold d.mu.
func (d *Debouncer) disarm() {
	d.armed = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
