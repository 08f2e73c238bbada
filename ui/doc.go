// Package ui provides the desktop front-end for Tunnel Tray.
//
// This package implements:
//
//   - Tray: a system tray indicator driving a vpn.Session
//   - Icons: PNG badges for the connected and disconnected states
//   - DesktopNotifier: freedesktop notifications over the session bus
//
// # Tray Behaviour
//
// A tap on the tray icon is fed to Session.Activate; two taps within the
// double-click interval toggle the tunnel and a single tap does nothing.
// The menu offers explicit Start and Stop, profile selection, the sudo and
// warning switches, and the journal of the current unit.
//
// # Thread Safety
//
// Menu clicks arrive on per-item goroutines. Session updates arrive from
// the poller while it holds its tick lock, so the tray only renders them
// and never calls back into the session synchronously.
package ui
