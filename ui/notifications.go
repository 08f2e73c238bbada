package ui

import (
	"os/exec"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/tunnel-tray/common"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
	notifyMethod      = notificationsName + ".Notify"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationSuccess
	NotificationWarning
	NotificationError
)

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

// icon returns the explicit icon or the default for the notification type.
func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Type {
	case NotificationWarning:
		return "dialog-warning"
	case NotificationError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// urgency maps the type onto the freedesktop urgency levels (0 low, 1
// normal, 2 critical).
func (n Notification) urgency() byte {
	switch n.Type {
	case NotificationError:
		return 2
	case NotificationWarning:
		return 1
	default:
		return 0
	}
}

var urgencyNames = [...]string{"low", "normal", "critical"}

// DesktopNotifier sends notifications over the session bus, falling back to
// notify-send when the bus is unreachable.
type DesktopNotifier struct {
	mu   sync.Mutex
	conn *dbus.Conn
	log  common.Logger
}

// NewDesktopNotifier creates a DesktopNotifier. The bus is dialed lazily.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{log: common.Named("notify")}
}

// Notify implements common.Notifier with a warning-level notification.
func (d *DesktopNotifier) Notify(title, message string) error {
	return d.Show(Notification{Title: title, Message: message, Type: NotificationWarning})
}

// NotifyWithIcon implements common.Notifier.
func (d *DesktopNotifier) NotifyWithIcon(title, message, icon string) error {
	return d.Show(Notification{Title: title, Message: message, Type: NotificationWarning, Icon: icon})
}

// Show displays n.
func (d *DesktopNotifier) Show(n Notification) error {
	conn, err := d.bus()
	if err == nil {
		call := conn.Object(notificationsName, notificationsPath).Call(notifyMethod, 0, notifyArgs(n)...)
		if call.Err == nil {
			return nil
		}
		err = call.Err
	}

	d.log.Debug("D-Bus notification failed, using notify-send: %v", err)
	if out, err := exec.Command("notify-send", notifySendArgs(n)...).CombinedOutput(); err != nil {
		d.log.Error("Error showing notification: %v: %s", err, out)
		return err
	}
	return nil
}

// Close releases the bus connection.
func (d *DesktopNotifier) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *DesktopNotifier) bus() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil && d.conn.Connected() {
		return d.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

// notifyArgs builds the Notify call arguments:
// app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout.
func notifyArgs(n Notification) []interface{} {
	return []interface{}{
		common.AppName,
		uint32(0),
		n.icon(),
		n.Title,
		n.Message,
		[]string{},
		map[string]dbus.Variant{
			"urgency":       dbus.MakeVariant(n.urgency()),
			"desktop-entry": dbus.MakeVariant(common.AppID),
		},
		int32(-1),
	}
}

func notifySendArgs(n Notification) []string {
	return []string{
		"--app-name=" + common.AppName,
		"--icon=" + n.icon(),
		"--urgency=" + urgencyNames[n.urgency()],
		n.Title,
		n.Message,
	}
}

var _ common.Notifier = (*DesktopNotifier)(nil)
