// Package main is the entry point for tunnel-tray, a desktop controller for
// a systemd-managed tunnel service.
//
// Usage:
//
//	tunnel-tray tray           # system tray indicator
//	tunnel-tray status|start|stop|toggle
//	tunnel-tray watch          # headless monitor
//
// Environment:
//
//	TUNNEL_TRAY_LOG_LEVEL overrides the log level (debug, info, warn, error).
package main

import (
	"os"

	"github.com/yllada/tunnel-tray/cli"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	cli.SetVersionInfo(appVersion, commitSHA, buildTime)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
