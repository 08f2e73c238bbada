package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/ui"
	"github.com/yllada/tunnel-tray/vpn"
)

// logRotationInterval is how often the daemon checks the log file size.
const logRotationInterval = time.Minute

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the tunnel without a tray icon",
	Long: "Poll the selected unit, warn on unexpected disconnects and record\n" +
		"transitions. Speaks sd_notify when run as a systemd user service:\n" +
		"READY once the first poll is done, WATCHDOG pings when WatchdogSec is\n" +
		"set, STATUS on every transition. SIGHUP reloads the settings.",
	Args:        cobra.NoArgs,
	Annotations: daemonAnnotations,
	RunE:        runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray watch: %w", err)
	}
	log := common.Named("watch")
	ctx := cmd.Context()

	notifier := ui.NewDesktopNotifier()
	defer notifier.Close()
	recorder, closeHistory := openHistory()
	defer closeHistory()

	session := a.newSession(notifier, recorder)
	session.Subscribe(func(u vpn.Update) {
		if !u.Changed() {
			return
		}
		log.Info("%s: %s -> %s", u.Unit, u.Previous, u.Current)
		sdNotify(log, "STATUS="+u.Unit+" "+u.Current.String())
	})

	session.Run(ctx)
	defer session.Close()

	log.Info("Watching %s every %s", session.Identity().Unit(), a.store.Snapshot().PollInterval)
	sdNotify(log, daemon.SdNotifyReady)
	defer sdNotify(log, daemon.SdNotifyStopping)

	var watchdog <-chan time.Time
	if interval, err := daemon.SdWatchdogEnabled(false); err != nil {
		log.Warn("Ignoring watchdog settings: %v", err)
	} else if interval > 0 {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		watchdog = ticker.C
	}

	rotation := time.NewTicker(logRotationInterval)
	defer rotation.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping: %v", ctx.Err())
			return nil
		case <-watchdog:
			sdNotify(log, daemon.SdNotifyWatchdog)
		case <-rotation.C:
			common.GetLogger().CheckRotation()
		case <-hup:
			reload(ctx, a, session, log)
		}
	}
}

// reload re-reads the settings and rebinds the session when the unit
// changed.
func reload(ctx context.Context, a *app, session *vpn.Session, log common.Logger) {
	sdNotify(log, daemon.SdNotifyReloading)
	defer sdNotify(log, daemon.SdNotifyReady)

	if err := a.store.Reload(); err != nil {
		log.Error("Reload failed, keeping current settings: %v", err)
		return
	}
	next := vpn.IdentityFromConfig(a.store.Snapshot())
	if next == session.Identity() {
		log.Info("Settings reloaded")
		return
	}
	log.Info("Settings reloaded, switching to %s", next.Unit())
	if !session.ApplySettings(ctx, next) {
		log.Warn("%s did not start after reload", next.Unit())
	}
}

func sdNotify(log common.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Debug("sd_notify %q: %v", state, err)
	}
}
