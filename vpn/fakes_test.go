package vpn

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yllada/tunnel-tray/common"
)

// fakeRunner answers systemctl and journalctl calls from a scripted table.
type fakeRunner struct {
	mu    sync.Mutex
	calls []fakeCall
	// results maps "verb" (argv[1] of systemctl, or "journalctl") to queued
	// exit codes; the last entry repeats.
	results map[string][]int
	output  map[string][]byte
	// inFlight counts concurrent Run calls; maxInFlight records the peak.
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

type fakeCall struct {
	argv []string
	opts RunOptions
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string][]int),
		output:  make(map[string][]byte),
	}
}

// script queues exit codes for verb.
func (f *fakeRunner) script(verb string, codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[verb] = append(f.results[verb], codes...)
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, opts RunOptions) Result {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{argv: append([]string{}, argv...), opts: opts})
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	verb := argv[0]
	if verb == "systemctl" && len(argv) > 1 {
		verb = argv[1]
	}
	code := 0
	if queue := f.results[verb]; len(queue) > 0 {
		code = queue[0]
		if len(queue) > 1 {
			f.results[verb] = queue[1:]
		}
	}
	out := f.output[verb]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if opts.Quiet {
		out = nil
	}
	return Result{ExitCode: code, Output: out}
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds := make([]string, len(f.calls))
	for i, c := range f.calls {
		cmds[i] = strings.Join(c.argv, " ")
	}
	return cmds
}

func (f *fakeRunner) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{period: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers synchronously and sending
// due ticks without blocking (a full channel drops the tick, like time.Ticker).
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*fakeTimer
	for _, t := range c.timers {
		if t.take(now) {
			due = append(due, t)
		}
	}
	tickers := append([]*fakeTicker{}, c.tickers...)
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	for _, t := range tickers {
		t.fire(now)
	}
}

// tickerCount returns how many tickers were created.
func (c *fakeClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	mu      sync.Mutex
	period  time.Duration
	next    time.Time
	stopped bool
	ch      chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || now.Before(t.next) {
		return
	}
	for !now.Before(t.next) {
		t.next = t.next.Add(t.period)
	}
	select {
	case t.ch <- now:
	default:
	}
}

type fakeTimer struct {
	mu      sync.Mutex
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (t *fakeTimer) take(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired || now.Before(t.at) {
		return false
	}
	t.fired = true
	return true
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *fakeNotifier) NotifyWithIcon(title, message, icon string) error {
	return n.Notify(title, message)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// fakeRecorder records transitions.
type fakeRecorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *fakeRecorder) Record(ctx context.Context, unit string, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

var _ common.Notifier = (*fakeNotifier)(nil)
var _ Recorder = (*fakeRecorder)(nil)
