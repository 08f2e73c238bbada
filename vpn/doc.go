// Package vpn monitors and controls a systemd-managed tunnel service.
//
// The tunnel runs as an instance of a templated unit,
// "<service_template>@<instance_name>". This package implements:
//
//   - Runner: runs external commands, optionally behind an elevation wrapper
//   - Controller: systemctl start / stop / is-active against the bound unit
//   - Poller: periodic, non-overlapping status ticks with previous/current state
//   - Debouncer: turns raw activations into a single or double action
//   - LogRetriever: boot-scoped journal text for the unit
//   - Session: the owner wiring the above into the tray behaviour
//
// # Control Flow
//
// A typical flow:
//
//  1. The front-end feeds activations to Session.Activate
//  2. A double activation toggles the unit through Poller.Reconcile
//  3. The Controller runs the elevated systemctl command
//  4. On exit 0 the Poller re-derives the state at once
//  5. Every tick, periodic or immediate, reaches Session subscribers
//
// # State
//
// ConnectionState is never stored authoritatively. Each tick re-derives it
// from "systemctl is-active", which is never elevated.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Commands issued
// through one Controller are serialized, and poll ticks never overlap with
// each other or with lifecycle actions issued through the Session.
package vpn
