package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/tui"
	"github.com/yllada/tunnel-tray/ui"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Show the system tray indicator",
	Long: "Show the tray indicator. Double-click the icon to toggle the tunnel.\n" +
		"Quitting the indicator leaves the tunnel as it is.",
	Args:        cobra.NoArgs,
	Annotations: daemonAnnotations,
	RunE:        runTray,
}

var tuiCmd = &cobra.Command{
	Use:         "tui",
	Short:       "Control the tunnel from a terminal UI",
	Args:        cobra.NoArgs,
	Annotations: daemonAnnotations,
	RunE:        runTUI,
}

func init() {
	rootCmd.AddCommand(trayCmd, tuiCmd)
}

func runTray(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray tray: %w", err)
	}
	common.LogInfo("Starting %s %s", common.AppName, buildVersion)

	notifier := ui.NewDesktopNotifier()
	recorder, closeHistory := openHistory()

	tray := ui.NewTray(ui.TrayConfig{
		Session: a.newSession(notifier, recorder),
		Store:   a.store,
		Logs:    a.logs,
		OnExit: func() {
			closeHistory()
			notifier.Close()
		},
	})
	tray.Run(cmd.Context())
	return nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tunnel-tray tui: stdout is not a terminal")
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray tui: %w", err)
	}

	notifier := ui.NewDesktopNotifier()
	defer notifier.Close()
	recorder, closeHistory := openHistory()
	defer closeHistory()

	// The alt screen owns the terminal; keep logging to the file.
	common.GetLogger().SetConsole(false)
	defer common.GetLogger().SetConsole(true)

	err = tui.Run(cmd.Context(), tui.Config{
		Session: a.newSession(notifier, recorder),
		Store:   a.store,
		Logs:    a.logs,
	})
	if err != nil {
		return fmt.Errorf("tunnel-tray tui: %w", err)
	}
	return nil
}
