package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.tunneltray.app"
	// AppName is the display name of the application.
	AppName = "Tunnel Tray"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "tunnel-tray"
)

// File names used by the application.
const (
	ConfigFileName  = "config.yaml"
	HistoryFileName = "history.db"
	LogFileName     = "tunnel-tray.log"
)

// Service defaults. The template and glob match the 4over6 client packaging.
const (
	// DefaultServiceTemplate is the systemd template unit controlled by the app.
	DefaultServiceTemplate = "thu4over6-client"
	// DefaultConfigLocation is the glob enumerating selectable instances.
	DefaultConfigLocation = "/etc/4over6/*.conf"
	// DefaultElevationCommand wraps privileged commands.
	DefaultElevationCommand = "sudo"
	// ClientExecutable is the tunnel client started by the service unit.
	ClientExecutable = "4over6-client"
	// DefaultTunnelInterface is the network interface created by the tunnel.
	DefaultTunnelInterface = "4over6"
)

// Default timeouts and intervals.
const (
	// PollInterval is how often the service state is re-queried.
	PollInterval = 5 * time.Second
	// DoubleClickInterval is the debounce window for tray activations.
	DoubleClickInterval = 400 * time.Millisecond
	// CommandTimeout bounds one subprocess call. Zero disables the bound.
	CommandTimeout time.Duration = 0
)

// Tray constants.
const (
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
	// HistoryKeep is how many transition rows are retained.
	HistoryKeep = 500
)
