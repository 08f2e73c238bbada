package vpn

import (
	"context"
	"sync"
	"time"

	"github.com/yllada/tunnel-tray/common"
)

// Event is the outcome of one poll tick.
type Event struct {
	Previous common.ConnectionState
	Current  common.ConnectionState
	// Unexpected is set for Connected -> Disconnected without a deliberate stop.
	Unexpected bool
	// Suppressed is set when this tick consumed the suppress-next-warning flag.
	Suppressed bool
	// Initial is set for the first tick, whose Previous is only the zero
	// state and not an observation.
	Initial bool
	At         time.Time
}

// Changed reports whether the tick observed a transition.
func (e Event) Changed() bool {
	return e.Previous != e.Current
}

// StatusChecker reports whether the tunnel service is running.
type StatusChecker interface {
	IsActive(ctx context.Context) bool
}

// PollerConfig holds configuration for the Poller.
type PollerConfig struct {
	// Interval is the tick period.
	Interval time.Duration
	// Clock drives the ticker; nil uses the system clock.
	Clock Clock
}

// DefaultPollerConfig returns the default poller configuration.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: common.PollInterval,
		Clock:    SystemClock(),
	}
}

// Poller periodically re-derives the connection state and reports every
// tick to its callback.
//
// Ticks never overlap: the periodic loop, Tick and Reconcile share tickMu.
// Once Stop returns no callback fires until the next Start.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	clock    Clock
	log      common.Logger

	tickMu sync.Mutex

	mu       sync.Mutex
	state    common.ConnectionState
	observed bool
	suppress bool
	halted   bool
	running  bool
	callback func(Event)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller creates a Poller querying checker.
func NewPoller(checker StatusChecker, config PollerConfig) *Poller {
	if config.Interval <= 0 {
		config.Interval = common.PollInterval
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}
	return &Poller{
		checker:  checker,
		interval: config.Interval,
		clock:    config.Clock,
		log:      common.Named("poller"),
	}
}

// Start begins the polling loop. callback receives every tick's Event; it
// runs with the tick lock held and must not call back into the Poller,
// except for State.
func (p *Poller) Start(ctx context.Context, callback func(Event)) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.halted = false
	p.callback = callback
	p.cancel = cancel
	p.done = make(chan struct{})

	p.log.Info("Poller started (interval: %v)", p.interval)

	go p.runLoop(loopCtx, p.done)
}

// Stop stops the loop and waits for any in-flight tick. No callback fires
// after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	done := p.done
	p.mu.Unlock()

	<-done

	p.tickMu.Lock()
	p.mu.Lock()
	p.halted = true
	p.callback = nil
	p.mu.Unlock()
	p.tickMu.Unlock()

	p.log.Info("Poller stopped")
}

// IsRunning returns whether the polling loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// State returns the state observed by the latest tick.
func (p *Poller) State() common.ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SuppressNextWarning marks the next tick's disconnect as deliberate. The
// flag is cleared by that tick whatever it observes.
func (p *Poller) SuppressNextWarning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suppress = true
}

// Tick runs one poll immediately. It returns false once the Poller has been
// stopped.
func (p *Poller) Tick(ctx context.Context) (Event, bool) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()
	return p.tickLocked(ctx)
}

// Reconcile runs action under the tick lock. When action succeeds it marks
// a deliberate stop if requested and re-derives the state at once; when it
// fails the state is left for the next periodic tick.
func (p *Poller) Reconcile(ctx context.Context, action func(context.Context) bool, deliberateStop bool) bool {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	if !action(ctx) {
		return false
	}
	if deliberateStop {
		p.SuppressNextWarning()
	}
	p.tickLocked(ctx)
	return true
}

// runLoop is the main polling loop.
func (p *Poller) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.tickMu.Lock()
			if ctx.Err() == nil {
				p.tickLocked(ctx)
			}
			p.tickMu.Unlock()
		}
	}
}

// tickLocked queries the checker and delivers the Event. Callers hold tickMu.
func (p *Poller) tickLocked(ctx context.Context) (Event, bool) {
	p.mu.Lock()
	halted := p.halted
	p.mu.Unlock()
	if halted {
		return Event{}, false
	}

	current := common.StateFromActive(p.checker.IsActive(ctx))

	p.mu.Lock()
	previous := p.state
	initial := !p.observed
	p.observed = true
	suppressed := p.suppress
	p.suppress = false
	p.state = current
	callback := p.callback
	p.mu.Unlock()

	ev := Event{
		Previous:   previous,
		Current:    current,
		Suppressed: suppressed,
		Initial:    initial,
		Unexpected: previous == common.StateConnected && current == common.StateDisconnected && !suppressed,
		At:         p.clock.Now(),
	}

	if ev.Changed() {
		p.log.Info("State changed: %s -> %s", previous, current)
	}

	if callback != nil {
		callback(ev)
	}
	return ev, true
}
