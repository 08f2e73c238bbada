package vpn

import (
	"context"
	"sync"
	"time"

	"github.com/yllada/tunnel-tray/common"
)

// DisconnectWarning is the notice shown when the tunnel drops unexpectedly.
const DisconnectWarning = "You have been disconnected from VPN!"

// Update is an Event as delivered to Session subscribers.
type Update struct {
	Event
	Unit string
	// Warned is set when a disconnect warning was raised for this tick.
	Warned bool
}

// Recorder persists state transitions.
type Recorder interface {
	Record(ctx context.Context, unit string, u Update) error
}

// SessionConfig holds the policy parameters of a Session.
type SessionConfig struct {
	PollInterval        time.Duration
	DoubleClickInterval time.Duration
	Clock               Clock
	// ShowWarning is read on every tick; nil never warns.
	ShowWarning func() bool
	Notifier    common.Notifier
	Recorder    Recorder
}

// Session wires the controller, poller and debouncer into the tray
// behaviour: a double activation toggles the tunnel, deliberate stops never
// warn, and every tick is fanned out to subscribers.
type Session struct {
	controller *Controller
	poller     *Poller
	debouncer  *Debouncer
	cfg        SessionConfig
	log        common.Logger

	// runMu orders Run against Close.
	runMu  sync.Mutex
	closed bool

	mu          sync.Mutex
	ctx         context.Context
	last        Update
	subscribers []func(Update)
}

// NewSession creates a Session around controller.
func NewSession(controller *Controller, cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.DoubleClickInterval <= 0 {
		cfg.DoubleClickInterval = common.DoubleClickInterval
	}

	s := &Session{
		controller: controller,
		cfg:        cfg,
		log:        common.Named("session"),
		ctx:        context.Background(),
	}
	s.poller = NewPoller(controller, PollerConfig{Interval: cfg.PollInterval, Clock: cfg.Clock})
	// A single activation is reserved; a double toggles.
	s.debouncer = NewDebouncer(cfg.DoubleClickInterval, cfg.Clock, nil, func() {
		s.Toggle(s.context())
	})
	return s
}

// Run starts polling and derives the initial state before returning. It
// does nothing once Close has been called.
func (s *Session) Run(ctx context.Context) {
	s.runMu.Lock()
	if s.closed {
		s.runMu.Unlock()
		return
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.poller.Start(ctx, s.handleEvent)
	s.runMu.Unlock()

	s.poller.Tick(ctx)
}

// Close stops polling and drops any pending activation. A Run that has not
// started polling yet will not start it.
func (s *Session) Close() {
	s.runMu.Lock()
	s.closed = true
	s.runMu.Unlock()

	s.debouncer.Stop()
	s.poller.Stop()
}

// Activate feeds one raw activation (tray click, key press) to the debouncer.
func (s *Session) Activate() {
	s.debouncer.Activate()
}

// Toggle stops the tunnel when connected and starts it otherwise.
func (s *Session) Toggle(ctx context.Context) bool {
	if s.Connected() {
		return s.Disconnect(ctx)
	}
	return s.Connect(ctx)
}

// Connect starts the unit; on success the state is re-derived at once.
func (s *Session) Connect(ctx context.Context) bool {
	return s.poller.Reconcile(ctx, s.controller.Start, false)
}

// Disconnect stops the unit as a deliberate stop, so the resulting
// disconnect does not warn.
func (s *Session) Disconnect(ctx context.Context) bool {
	return s.poller.Reconcile(ctx, s.controller.Stop, true)
}

// Refresh polls immediately. It also works before Run, for one-shot use.
func (s *Session) Refresh(ctx context.Context) (Event, bool) {
	return s.poller.Tick(ctx)
}

// ApplySettings rebinds the session to identity. A connected tunnel is
// stopped under its old unit and started under the new one. It reports
// whether the tunnel ended up in the requested state.
func (s *Session) ApplySettings(ctx context.Context, identity Identity) bool {
	wasConnected := s.Connected()
	ok := true

	s.poller.Reconcile(ctx, func(ctx context.Context) bool {
		if !wasConnected {
			s.controller.Rebind(identity)
			return true
		}
		if !s.controller.Stop(ctx) {
			s.log.Warn("Stopping %s before rebind failed", s.controller.Identity().Unit())
		}
		s.controller.Rebind(identity)
		ok = s.controller.Start(ctx)
		return true
	}, wasConnected)

	return ok
}

// Connected returns the state observed by the latest tick.
func (s *Session) Connected() bool {
	return s.poller.State() == common.StateConnected
}

// State returns the state observed by the latest tick.
func (s *Session) State() common.ConnectionState {
	return s.poller.State()
}

// Identity returns the unit the session controls.
func (s *Session) Identity() Identity {
	return s.controller.Identity()
}

// Last returns the most recent Update.
func (s *Session) Last() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe registers fn for every tick. fn must not call Connect,
// Disconnect, Toggle, Refresh or ApplySettings synchronously.
func (s *Session) Subscribe(fn func(Update)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Session) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// handleEvent runs for every tick with the poller's tick lock held.
func (s *Session) handleEvent(ev Event) {
	u := Update{
		Event: ev,
		Unit:  s.controller.Identity().Unit(),
	}

	if ev.Unexpected && s.cfg.ShowWarning != nil && s.cfg.ShowWarning() {
		u.Warned = true
		s.log.Warn("%s dropped without a deliberate stop", u.Unit)
		if s.cfg.Notifier != nil {
			if err := s.cfg.Notifier.Notify(common.AppName, DisconnectWarning); err != nil {
				s.log.Error("Failed to send disconnect warning: %v", err)
			}
		}
	}

	// The first tick compares against nothing observed; it is not a transition.
	if ev.Changed() && !ev.Initial && s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.Record(s.context(), u.Unit, u); err != nil {
			s.log.Error("Failed to record transition: %v", err)
		}
	}

	s.mu.Lock()
	s.last = u
	subs := append([]func(Update){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}
