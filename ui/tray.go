package ui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"fyne.io/systray"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/vpn"
)

// TrayConfig wires a Tray to the core.
type TrayConfig struct {
	Session *vpn.Session
	Store   *config.Store
	Logs    *vpn.LogRetriever
	// OnExit runs after the tray has shut down.
	OnExit func()
}

// Tray is the system tray front-end. A tap on the icon is an activation:
// two taps within the double-click interval toggle the tunnel.
type Tray struct {
	session *vpn.Session
	store   *config.Store
	logs    *vpn.LogRetriever
	onExit  func()
	log     common.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	statusItem   *systray.MenuItem
	startItem    *systray.MenuItem
	stopItem     *systray.MenuItem
	profilesMenu *systray.MenuItem
	profileItems map[string]*systray.MenuItem
	sudoItem     *systray.MenuItem
	warnItem     *systray.MenuItem
	quitItem     *systray.MenuItem
}

// NewTray creates a Tray.
func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session:      cfg.Session,
		store:        cfg.Store,
		logs:         cfg.Logs,
		onExit:       cfg.OnExit,
		log:          common.Named("tray"),
		profileItems: make(map[string]*systray.MenuItem),
	}
}

// Run shows the tray and blocks until Quit or ctx is done.
func (t *Tray) Run(ctx context.Context) {
	t.ctx, t.cancel = context.WithCancel(ctx)
	go func() {
		<-t.ctx.Done()
		systray.Quit()
	}()
	systray.Run(t.onReady, t.handleExit)
}

// onReady is called when the systray is ready.
func (t *Tray) onReady() {
	systray.SetIcon(IconForState(common.StateDisconnected))
	systray.SetTitle(common.AppName)
	systray.SetTooltip(common.AppName)
	systray.SetOnTapped(t.tapped)

	t.statusItem = systray.AddMenuItem("Disconnected", "Current tunnel status")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.startItem = systray.AddMenuItem("Start", "Start the tunnel")
	t.onClick(t.startItem, func() { t.session.Connect(t.ctx) })

	t.stopItem = systray.AddMenuItem("Stop", "Stop the tunnel")
	t.stopItem.Disable()
	t.onClick(t.stopItem, func() { t.session.Disconnect(t.ctx) })

	systray.AddSeparator()

	t.profilesMenu = systray.AddMenuItem("Profiles", "Select the tunnel instance")
	t.refreshProfiles()

	cfg := t.store.Snapshot()
	t.sudoItem = systray.AddMenuItemCheckbox("Use sudo", "Wrap privileged commands", cfg.UseSudo)
	t.onClick(t.sudoItem, func() {
		t.updateSettings(func(c *config.Config) { c.UseSudo = !c.UseSudo })
	})

	t.warnItem = systray.AddMenuItemCheckbox("Warn on disconnect", "Notify when the tunnel drops", cfg.ShowWarning)
	t.onClick(t.warnItem, func() {
		t.updateSettings(func(c *config.Config) { c.ShowWarning = !c.ShowWarning })
	})

	systray.AddSeparator()

	logsItem := systray.AddMenuItem("Show logs", "Open the tunnel journal")
	t.onClick(logsItem, t.showLogs)

	reloadItem := systray.AddMenuItem("Reload settings", "Re-read "+t.store.Path())
	t.onClick(reloadItem, t.reloadSettings)

	systray.AddSeparator()

	t.quitItem = systray.AddMenuItem("Quit", "Close "+common.AppName)
	t.onClick(t.quitItem, func() { systray.Quit() })

	t.store.Subscribe(t.applySettings)
	t.session.Subscribe(t.apply)
	go t.session.Run(t.ctx)
}

// tapped runs in the host's D-Bus call; a double tap starts or stops the
// unit, which must not hold up the reply.
func (t *Tray) tapped() {
	go t.session.Activate()
}

// handleExit is called when the systray is about to exit.
func (t *Tray) handleExit() {
	t.session.Close()
	if t.cancel != nil {
		t.cancel()
	}
	if t.onExit != nil {
		t.onExit()
	}
	common.LogInfo("Tray indicator cleanup completed")
}

func (t *Tray) onClick(item *systray.MenuItem, fn func()) {
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

// apply renders one session update.
func (t *Tray) apply(u vpn.Update) {
	v := newTrayView(u)

	systray.SetIcon(IconForState(u.Current))
	systray.SetTooltip(v.tooltip)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.statusItem.SetTitle(v.status)
	setEnabled(t.startItem, v.canStart)
	setEnabled(t.stopItem, v.canStop)
	t.quitItem.SetTitle(v.quit)
}

// trayView is the menu text and enablement for one update.
type trayView struct {
	status   string
	tooltip  string
	quit     string
	canStart bool
	canStop  bool
}

func newTrayView(u vpn.Update) trayView {
	connected := u.Current == common.StateConnected
	v := trayView{
		status:   fmt.Sprintf("%s: %s", u.Current, u.Unit),
		tooltip:  fmt.Sprintf("%s - %s", common.AppName, u.Current),
		quit:     "Quit",
		canStart: !connected,
		canStop:  connected,
	}
	if connected {
		// Quitting the tray leaves the service running.
		v.quit = "Quit (tunnel stays up)"
	}
	return v
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

// refreshProfiles adds an entry per discovered instance and hides the ones
// that disappeared.
func (t *Tray) refreshProfiles() {
	cfg := t.store.Snapshot()
	names, err := vpn.DiscoverInstances(cfg.ConfigLocation)
	if err != nil {
		t.log.Warn("Cannot list profiles: %v", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
		item, ok := t.profileItems[name]
		if !ok {
			item = t.profilesMenu.AddSubMenuItemCheckbox(name, "Use "+name, false)
			t.profileItems[name] = item
			name := name
			t.onClick(item, func() { t.selectProfile(name) })
		}
		item.Show()
	}
	for name, item := range t.profileItems {
		if !present[name] {
			item.Hide()
		}
	}
	t.markSelected(cfg.VPNName)

	if len(names) == 0 {
		t.profilesMenu.Disable()
	} else {
		t.profilesMenu.Enable()
	}
}

// markSelected checks the selected profile. Callers hold t.mu.
func (t *Tray) markSelected(selected string) {
	for name, item := range t.profileItems {
		if name == selected {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (t *Tray) selectProfile(name string) {
	if t.store.Snapshot().VPNName == name {
		return
	}
	t.updateSettings(func(c *config.Config) { c.VPNName = name })
}

func (t *Tray) updateSettings(fn func(*config.Config)) {
	if err := t.store.Update(fn); err != nil {
		t.log.Error("Failed to save settings: %v", err)
	}
}

func (t *Tray) reloadSettings() {
	if err := t.store.Reload(); err != nil {
		t.log.Error("Failed to reload settings: %v", err)
		return
	}
	t.refreshProfiles()
}

// applySettings runs after every confirmed settings change.
func (t *Tray) applySettings(cfg config.Config) {
	t.mu.Lock()
	setChecked(t.sudoItem, cfg.UseSudo)
	setChecked(t.warnItem, cfg.ShowWarning)
	t.markSelected(cfg.VPNName)
	t.mu.Unlock()

	identity := vpn.IdentityFromConfig(cfg)
	if identity != t.session.Identity() {
		go t.session.ApplySettings(t.ctx, identity)
	}
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// showLogs writes the journal to a runtime file and opens it.
func (t *Tray) showLogs() {
	report := t.logs.Report(t.ctx, t.store.Snapshot().TunnelInterface)

	path := filepath.Join(common.GetRuntimeDir(), common.ConfigDirName+"-journal.txt")
	if err := os.WriteFile(path, []byte(report.String()), 0600); err != nil {
		t.log.Error("Failed to write logs: %v", err)
		return
	}

	cmd := exec.Command("xdg-open", path)
	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to open logs: %v", err)
		return
	}
	go cmd.Wait()
}
