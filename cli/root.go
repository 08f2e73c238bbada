// Package cli implements the tunnel-tray commands. The same binary serves
// one-shot commands for scripts, the headless watch daemon and the tray and
// terminal front-ends.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yllada/tunnel-tray/common"
)

var (
	cfgFile string
	verbose bool
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf("tunnel-tray version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate)
}

var rootCmd = &cobra.Command{
	Use:   "tunnel-tray",
	Short: "Control a systemd-managed tunnel from the desktop or the shell",
	Long: "tunnel-tray starts, stops and monitors one instance of a templated\n" +
		"systemd tunnel service (thu4over6-client@<instance> by default).\n" +
		"Run \"tunnel-tray tray\" for the system tray indicator.",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.config/tunnel-tray/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(versionTemplate())
}

// setupLogging applies --verbose. Long-running commands also log to file.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level := common.LevelInfo
	if verbose {
		level = common.LevelDebug
	}

	err := common.InitLogger(common.LogConfig{
		Level:      level,
		EnableFile: cmd.Annotations[annotationDaemon] == "true",
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not initialize file logging: %v\n", err)
	}
	return nil
}

// annotationDaemon marks commands that run until stopped.
const annotationDaemon = "daemon"

var daemonAnnotations = map[string]string{annotationDaemon: "true"}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	defer common.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
