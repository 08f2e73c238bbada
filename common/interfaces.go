package common

// ConnectionState is the tunnel state as derived from the service manager.
// It is never stored authoritatively; every poll re-derives it.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
)

// String returns a human-readable state string.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// StateFromActive maps an is-active result onto a ConnectionState.
func StateFromActive(active bool) ConnectionState {
	if active {
		return StateConnected
	}
	return StateDisconnected
}

// ElevationConfig describes how privileged commands are wrapped.
type ElevationConfig struct {
	// Enabled wraps privileged commands with Command.
	Enabled bool
	// Command is the wrapper, e.g. "sudo" or "sudo -S". Blank means "sudo".
	Command string
	// PasswordStdin writes the stored elevation secret to the wrapper's stdin.
	PasswordStdin bool
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
	// NotifyWithIcon sends a notification with a custom icon.
	NotifyWithIcon(title, message, icon string) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
