package vpn

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const window = 400 * time.Millisecond

type counters struct {
	single atomic.Int32
	double atomic.Int32
}

func newCountingDebouncer(clock Clock) (*Debouncer, *counters) {
	c := &counters{}
	d := NewDebouncer(window, clock,
		func() { c.single.Add(1) },
		func() { c.double.Add(1) },
	)
	return d, c
}

func TestDebouncer_SingleActivation(t *testing.T) {
	clock := newFakeClock()
	d, c := newCountingDebouncer(clock)

	d.Activate()
	if !d.Pending() {
		t.Error("first activation should arm the window")
	}

	clock.Advance(window - time.Millisecond)
	if c.single.Load() != 0 {
		t.Fatal("onSingle fired before the window elapsed")
	}

	clock.Advance(time.Millisecond)
	clock.Advance(window)

	if c.single.Load() != 1 || c.double.Load() != 0 {
		t.Errorf("single=%d double=%d, want 1/0", c.single.Load(), c.double.Load())
	}
	if d.Pending() {
		t.Error("window should be closed after expiry")
	}
}

func TestDebouncer_DoubleActivation(t *testing.T) {
	clock := newFakeClock()
	d, c := newCountingDebouncer(clock)

	d.Activate()
	clock.Advance(window / 2)
	d.Activate()

	if c.double.Load() != 1 {
		t.Fatalf("onDouble should run immediately, got %d", c.double.Load())
	}

	clock.Advance(2 * window)
	if c.single.Load() != 0 || c.double.Load() != 1 {
		t.Errorf("single=%d double=%d, want 0/1", c.single.Load(), c.double.Load())
	}
}

func TestDebouncer_Sequences(t *testing.T) {
	tests := []struct {
		gaps     []time.Duration // gap before each activation after the first
		single   int32
		double   int32
		expected string
	}{
		{nil, 1, 0, "one"},
		{[]time.Duration{window / 4}, 0, 1, "fast pair"},
		{[]time.Duration{window}, 2, 0, "slow pair"},
		{[]time.Duration{window / 4, window / 4}, 1, 1, "triple"},
		{[]time.Duration{window / 4, window / 4, window / 4}, 0, 2, "two fast pairs"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			clock := newFakeClock()
			d, c := newCountingDebouncer(clock)

			d.Activate()
			for _, gap := range tt.gaps {
				clock.Advance(gap)
				d.Activate()
			}
			clock.Advance(2 * window)

			if c.single.Load() != tt.single || c.double.Load() != tt.double {
				t.Errorf("single=%d double=%d, want %d/%d",
					c.single.Load(), c.double.Load(), tt.single, tt.double)
			}
		})
	}
}

func TestDebouncer_Stop(t *testing.T) {
	clock := newFakeClock()
	d, c := newCountingDebouncer(clock)

	d.Activate()
	d.Stop()
	clock.Advance(2 * window)

	if c.single.Load() != 0 || c.double.Load() != 0 {
		t.Error("Stop should discard the pending activation")
	}
}

func TestDebouncer_StaleTimerIgnored(t *testing.T) {
	clock := newFakeClock()
	d, c := newCountingDebouncer(clock)

	d.Activate()
	d.mu.Lock()
	staleGen := d.gen
	d.mu.Unlock()
	d.Activate() // double
	d.Activate() // new window

	// The first window's timer firing late must not consume the new window.
	d.expire(staleGen)
	if c.single.Load() != 0 || !d.Pending() {
		t.Errorf("stale expiry consumed the new window: single=%d", c.single.Load())
	}

	clock.Advance(window)
	if c.single.Load() != 1 || c.double.Load() != 1 {
		t.Errorf("single=%d double=%d, want 1/1", c.single.Load(), c.double.Load())
	}
}

func TestDebouncer_ExactlyOneCallbackRealClock(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 2)
	d := NewDebouncer(20*time.Millisecond, SystemClock(),
		func() { mu.Lock(); got = append(got, "single"); mu.Unlock(); done <- struct{}{} },
		func() { mu.Lock(); got = append(got, "double"); mu.Unlock(); done <- struct{}{} },
	)

	d.Activate()
	select {
	case <-done:
	case <-time.After(eventWait):
		t.Fatal("onSingle never fired")
	}
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "single" {
		t.Errorf("callbacks = %v, want [single]", got)
	}
}

func TestDebouncer_NilCallbacks(t *testing.T) {
	clock := newFakeClock()
	d := NewDebouncer(window, clock, nil, nil)
	d.Activate()
	d.Activate()
	d.Activate()
	clock.Advance(window)
}
