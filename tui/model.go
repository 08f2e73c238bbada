package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/vpn"
)

// Backend is the part of vpn.Session the TUI drives.
type Backend interface {
	Activate()
	Connect(ctx context.Context) bool
	Disconnect(ctx context.Context) bool
	ApplySettings(ctx context.Context, identity vpn.Identity) bool
	State() common.ConnectionState
	Identity() vpn.Identity
}

// LogSource produces the journal shown by the log viewer.
type LogSource func(ctx context.Context) vpn.LogReport

type mode int

const (
	modeStatus mode = iota
	modeLogs
	modeSettings
	modeConfirmQuit
)

// Settings form fields, in focus order.
const (
	fieldSudoCommand = iota
	fieldUseSudo
	fieldShowWarning
	fieldInstance
	fieldCount
)

type (
	updateMsg struct{ vpn.Update }
	actionMsg struct {
		verb string
		ok   bool
	}
	logsMsg  struct{ report vpn.LogReport }
	savedMsg struct{ err error }
)

type model struct {
	ctx     context.Context
	backend Backend
	store   *config.Store
	logs    LogSource

	mode   mode
	state  common.ConnectionState
	unit   string
	notice string
	busy   bool

	viewer    viewport.Model
	hasReport bool
	header    string

	focus       int
	sudoCommand textinput.Model
	instance    textinput.Model
	useSudo     bool
	showWarning bool
	formErr     string

	width, height int
}

func newModel(ctx context.Context, backend Backend, store *config.Store, logs LogSource) model {
	sudo := textinput.New()
	sudo.Prompt = ""
	sudo.Placeholder = common.DefaultElevationCommand
	sudo.CharLimit = 256

	instance := textinput.New()
	instance.Prompt = ""
	instance.Placeholder = "instance name"
	instance.CharLimit = 128

	return model{
		ctx:         ctx,
		backend:     backend,
		store:       store,
		logs:        logs,
		state:       backend.State(),
		unit:        backend.Identity().Unit(),
		viewer:      viewport.New(80, 20),
		sudoCommand: sudo,
		instance:    instance,
		width:       80,
		height:      24,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewer.Width = msg.Width
		m.viewer.Height = max(msg.Height-4, 1)
		return m, nil

	case updateMsg:
		m.state = msg.Current
		m.unit = msg.Unit
		if msg.Warned {
			m.notice = vpn.DisconnectWarning
		} else if msg.Changed() {
			m.notice = ""
		}
		return m, nil

	case actionMsg:
		m.busy = false
		if !msg.ok {
			m.notice = fmt.Sprintf("%s failed, see the logs", msg.verb)
		}
		return m, nil

	case logsMsg:
		m.hasReport = true
		m.header = msg.report.Header()
		m.viewer.SetContent(string(msg.report.Text))
		m.viewer.GotoBottom()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.formErr = msg.err.Error()
			return m, nil
		}
		m.mode = modeStatus
		m.formErr = ""
		m.unit = m.backend.Identity().Unit()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeLogs:
			return m.updateLogs(msg)
		case modeSettings:
			return m.updateSettings(msg)
		case modeConfirmQuit:
			return m.updateConfirm(msg)
		default:
			return m.updateStatus(msg)
		}
	}
	return m, nil
}

func (m model) updateStatus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		if m.state == common.StateConnected {
			m.mode = modeConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case " ", "enter":
		return m, m.activate()
	case "s":
		if !m.busy {
			m.busy = true
			return m, m.action("Start", m.backend.Connect)
		}
	case "x":
		if !m.busy {
			m.busy = true
			return m, m.action("Stop", m.backend.Disconnect)
		}
	case "l":
		m.mode = modeLogs
		return m, m.fetchLogs()
	case "e":
		return m.openSettings()
	}
	return m, nil
}

func (m model) updateLogs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.mode = modeStatus
		return m, nil
	case "r":
		return m, m.fetchLogs()
	}
	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "ctrl+c":
		return m, tea.Quit
	case "n", "N", "esc", "q":
		m.mode = modeStatus
	}
	return m, nil
}

func (m model) openSettings() (tea.Model, tea.Cmd) {
	cfg := m.store.Snapshot()
	m.sudoCommand.SetValue(cfg.SudoCommand)
	m.instance.SetValue(cfg.VPNName)
	m.useSudo = cfg.UseSudo
	m.showWarning = cfg.ShowWarning
	m.formErr = ""
	m.mode = modeSettings
	m.focus = fieldSudoCommand
	return m, m.focusField()
}

func (m model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeStatus
		m.sudoCommand.Blur()
		m.instance.Blur()
		return m, nil
	case "tab", "down":
		m.focus = (m.focus + 1) % fieldCount
		return m, m.focusField()
	case "shift+tab", "up":
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, m.focusField()
	case "enter":
		return m, m.save()
	case " ":
		switch m.focus {
		case fieldUseSudo:
			m.useSudo = !m.useSudo
			return m, nil
		case fieldShowWarning:
			m.showWarning = !m.showWarning
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldSudoCommand:
		m.sudoCommand, cmd = m.sudoCommand.Update(msg)
	case fieldInstance:
		m.instance, cmd = m.instance.Update(msg)
	}
	return m, cmd
}

func (m *model) focusField() tea.Cmd {
	m.sudoCommand.Blur()
	m.instance.Blur()
	switch m.focus {
	case fieldSudoCommand:
		return m.sudoCommand.Focus()
	case fieldInstance:
		return m.instance.Focus()
	}
	return nil
}

// save persists the form and rebinds the session when the unit changed.
func (m model) save() tea.Cmd {
	sudoCommand := strings.TrimSpace(m.sudoCommand.Value())
	instance := strings.TrimSpace(m.instance.Value())
	useSudo, showWarning := m.useSudo, m.showWarning
	ctx, store, backend := m.ctx, m.store, m.backend

	return func() tea.Msg {
		err := store.Update(func(c *config.Config) {
			c.SudoCommand = sudoCommand
			c.UseSudo = useSudo
			c.ShowWarning = showWarning
			c.VPNName = instance
		})
		if err != nil {
			return savedMsg{err: err}
		}
		identity := vpn.IdentityFromConfig(store.Snapshot())
		if identity != backend.Identity() && !backend.ApplySettings(ctx, identity) {
			return savedMsg{err: fmt.Errorf("saved, but %s did not start", identity.Unit())}
		}
		return savedMsg{}
	}
}

func (m model) action(verb string, fn func(context.Context) bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{verb: verb, ok: fn(ctx)}
	}
}

// activate feeds the debouncer off the event loop: a double activation
// toggles the tunnel and the resulting update is sent back to the program.
func (m model) activate() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		backend.Activate()
		return nil
	}
}

func (m model) fetchLogs() tea.Cmd {
	ctx, logs := m.ctx, m.logs
	return func() tea.Msg {
		return logsMsg{report: logs(ctx)}
	}
}

func (m model) View() string {
	switch m.mode {
	case modeLogs:
		return m.viewLogs()
	case modeSettings:
		return m.viewSettings()
	}

	b := &strings.Builder{}
	fmt.Fprintln(b, titleStyle.Render(common.AppName))
	fmt.Fprintln(b)

	badge := disconnectedBadge
	if m.state == common.StateConnected {
		badge = connectedBadge
	}
	fmt.Fprintf(b, "%s  %s\n", badge.Render(m.state.String()), labelStyle.Render(m.unit))

	if m.busy {
		fmt.Fprintln(b, helpStyle.Render("working..."))
	}
	if m.notice != "" {
		fmt.Fprintln(b, errorStyle.Render(m.notice))
	}
	fmt.Fprintln(b)

	if m.mode == modeConfirmQuit {
		fmt.Fprintln(b, confirmStyle.Render("The tunnel stays up after quitting. Quit? (y/n)"))
		return b.String()
	}
	fmt.Fprintln(b, helpStyle.Render("space×2 toggle  s start  x stop  l logs  e settings  q quit"))
	return b.String()
}

func (m model) viewLogs() string {
	b := &strings.Builder{}
	header := m.header
	if !m.hasReport {
		header = "loading " + m.unit
	}
	fmt.Fprintln(b, headerStyle.Render(header))
	fmt.Fprintln(b, m.viewer.View())
	fmt.Fprint(b, helpStyle.Render("↑/↓ scroll  r refresh  esc back"))
	return b.String()
}

func (m model) viewSettings() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, titleStyle.Render("Settings"))
	fmt.Fprintln(b)

	rows := []struct {
		label string
		value string
	}{
		{"Sudo command", m.sudoCommand.View()},
		{"Use sudo", checkbox(m.useSudo)},
		{"Warn on disconnect", checkbox(m.showWarning)},
		{"Instance", m.instance.View()},
	}
	for i, row := range rows {
		label := labelStyle.Render(fmt.Sprintf("%-20s", row.label))
		if i == m.focus {
			label = focusStyle.Render(fmt.Sprintf("%-20s", row.label))
		}
		fmt.Fprintf(b, "%s %s\n", label, row.value)
	}

	if m.formErr != "" {
		fmt.Fprintln(b)
		fmt.Fprintln(b, errorStyle.Render(m.formErr))
	}
	fmt.Fprintln(b)
	fmt.Fprintln(b, helpStyle.Render("tab next  space toggle  enter save  esc cancel"))
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
