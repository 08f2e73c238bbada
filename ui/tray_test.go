package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/vpn"
)

// gatedRunner holds every elevated call until release is closed.
type gatedRunner struct {
	release chan struct{}

	mu      sync.Mutex
	started bool
}

func (r *gatedRunner) Run(ctx context.Context, argv []string, opts vpn.RunOptions) vpn.Result {
	if !opts.Elevate {
		return vpn.Result{ExitCode: 3}
	}
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return vpn.Result{}
}

func (r *gatedRunner) didStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func TestTray_TapDoesNotBlock(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.VPNName = "home"

	runner := &gatedRunner{release: make(chan struct{})}
	session := vpn.NewSession(vpn.NewController(runner, vpn.IdentityFromConfig(cfg)), vpn.SessionConfig{
		DoubleClickInterval: time.Minute,
	})
	defer session.Close()
	tray := NewTray(TrayConfig{Session: session, Store: config.NewMemoryStore(cfg)})

	returned := make(chan struct{})
	go func() {
		tray.tapped()
		tray.tapped()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		close(runner.release)
		t.Fatal("a double tap waited for systemctl")
	}

	close(runner.release)
	deadline := time.Now().Add(2 * time.Second)
	for !runner.didStart() {
		if time.Now().After(deadline) {
			t.Fatal("double tap never started the unit")
		}
		time.Sleep(time.Millisecond)
	}
}
