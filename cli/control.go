package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/vpn"
)

var statusDetails bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the tunnel is up",
	Long: "Query systemd for the selected unit and print Connected or Disconnected.\n" +
		"The exit code is 0 in both cases.",
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tunnel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLifecycle(cmd, "start", (*vpn.Controller).Start)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the tunnel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLifecycle(cmd, "stop", (*vpn.Controller).Stop)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the tunnel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLifecycle(cmd, "restart", (*vpn.Controller).Restart)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Stop the tunnel if it is up, start it otherwise",
	Args:  cobra.NoArgs,
	RunE:  runToggle,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusDetails, "details", "d", false, "show unit details from systemd")
	rootCmd.AddCommand(statusCmd, startCmd, stopCmd, restartCmd, toggleCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray status: %w", err)
	}

	w := cmd.OutOrStdout()
	id, err := a.identity()
	if err != nil {
		fmt.Fprintf(w, "%s (%v)\n", common.StateDisconnected, err)
		return nil
	}

	ctx := cmd.Context()
	state := common.StateFromActive(a.controller.IsActive(ctx))
	fmt.Fprintf(w, "%s: %s\n", id.Unit(), state)

	if !statusDetails {
		return nil
	}

	info, err := vpn.DescribeUnit(ctx, id.Unit())
	if err != nil {
		fmt.Fprintf(w, "  details unavailable: %v\n", err)
		return nil
	}
	printUnitInfo(cmd, info)
	return nil
}

func printUnitInfo(cmd *cobra.Command, info vpn.UnitInfo) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Description: %s\n", info.Description)
	fmt.Fprintf(w, "  Loaded:      %s\n", info.LoadState)
	fmt.Fprintf(w, "  Active:      %s (%s)\n", info.ActiveState, info.SubState)
	if info.MainPID != 0 {
		fmt.Fprintf(w, "  Main PID:    %d\n", info.MainPID)
	}
	if !info.ActiveSince.IsZero() {
		fmt.Fprintf(w, "  Since:       %s\n", info.ActiveSince.Format("2006-01-02 15:04:05"))
	} else if !info.InactiveSince.IsZero() {
		fmt.Fprintf(w, "  Down since:  %s\n", info.InactiveSince.Format("2006-01-02 15:04:05"))
	}
}

func runLifecycle(cmd *cobra.Command, verb string, action func(*vpn.Controller, context.Context) bool) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray %s: %w", verb, err)
	}
	id, err := a.identity()
	if err != nil {
		return fmt.Errorf("tunnel-tray %s: %w", verb, err)
	}

	if !action(a.controller, cmd.Context()) {
		return fmt.Errorf("tunnel-tray %s: %w: systemctl %s %s", verb, common.ErrCommandFailed, verb, id.Unit())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id.Unit(), pastTense(verb))
	return nil
}

func pastTense(verb string) string {
	if strings.HasSuffix(verb, "p") {
		return verb + "ped"
	}
	return verb + "ed"
}

func runToggle(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray toggle: %w", err)
	}
	id, err := a.identity()
	if err != nil {
		return fmt.Errorf("tunnel-tray toggle: %w", err)
	}

	ctx := cmd.Context()
	session := a.newSession(nil, nil)
	// The session starts Disconnected until it has polled once.
	session.Refresh(ctx)
	wasConnected := session.Connected()

	if !session.Toggle(ctx) {
		verb := "start"
		if wasConnected {
			verb = "stop"
		}
		return fmt.Errorf("tunnel-tray toggle: %w: systemctl %s %s", common.ErrCommandFailed, verb, id.Unit())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id.Unit(), session.State())
	return nil
}
