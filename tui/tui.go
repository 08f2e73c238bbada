// Package tui is a terminal front-end for Tunnel Tray. It renders the
// session state, feeds key presses to the activation debouncer and hosts
// the log viewer and settings form.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/vpn"
)

// Config wires the TUI to the core.
type Config struct {
	Session *vpn.Session
	Store   *config.Store
	Logs    *vpn.LogRetriever
}

// Run starts the session and blocks until the user quits or ctx is done.
// Quitting leaves the tunnel in whatever state it is in.
func Run(ctx context.Context, cfg Config) error {
	p := newProgram(ctx, cfg, tea.WithAltScreen())

	// Close fences a Run that has not reached the poller yet.
	go cfg.Session.Run(ctx)
	defer cfg.Session.Close()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// newProgram builds the program and forwards every session update to it.
// Updates are sent from the ticking goroutine, never the event loop.
func newProgram(ctx context.Context, cfg Config, opts ...tea.ProgramOption) *tea.Program {
	iface := func() string { return cfg.Store.Snapshot().TunnelInterface }
	logs := func(ctx context.Context) vpn.LogReport {
		return cfg.Logs.Report(ctx, iface())
	}

	p := tea.NewProgram(
		newModel(ctx, cfg.Session, cfg.Store, logs),
		append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...,
	)
	cfg.Session.Subscribe(func(u vpn.Update) {
		p.Send(updateMsg{u})
	})
	return p
}
