// Package common provides shared constants, types, and utilities used
// throughout Tunnel Tray.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: service defaults, intervals and file names
//   - Errors: sentinel errors checked with errors.Is across packages
//   - Interfaces: ConnectionState, ElevationConfig, Notifier and Logger
//   - Logger: leveled logging to stderr and a rotating file
//   - Utils: config, data and runtime directory helpers
//
// # Usage
//
//	common.LogInfo("Starting %s", unit)
//
//	log := common.Named("poller")
//	log.Debug("tick: %s -> %s", prev, cur)
//
//	if errors.Is(err, common.ErrNoInstance) {
//	    // Ask the user to pick an instance
//	}
package common
