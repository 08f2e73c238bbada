package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/vpn"
)

var useForce bool

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"list"},
	Short:   "List the tunnel instances found on this machine",
	Long:    "List the instance configs matched by config_location and mark the selected one.",
	Args:    cobra.NoArgs,
	RunE:    runProfiles,
}

var useCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Select the tunnel instance to control",
	Long: "Persist NAME as vpn_name. When the tunnel is up it is stopped under the\n" +
		"old unit and started under the new one.",
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

func init() {
	useCmd.Flags().BoolVar(&useForce, "force", false, "select NAME even if no config file matches it")
	rootCmd.AddCommand(profilesCmd, useCmd)
}

func runProfiles(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray profiles: %w", err)
	}

	cfg := a.store.Snapshot()
	names, err := vpn.DiscoverInstances(cfg.ConfigLocation)
	if err != nil {
		return fmt.Errorf("tunnel-tray profiles: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No instances found in %s.\n", cfg.ConfigLocation)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUNIT\tSELECTED")
	fmt.Fprintln(w, "----\t----\t--------")
	for _, name := range names {
		selected := ""
		if name == cfg.VPNName {
			selected = "*"
		}
		id := vpn.Identity{Template: cfg.ServiceName, Instance: name}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, id.Unit(), selected)
	}
	return w.Flush()
}

func runUse(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray use: %w", err)
	}

	if !useForce {
		found, err := vpn.HasInstance(a.store.Snapshot().ConfigLocation, name)
		if err != nil {
			return fmt.Errorf("tunnel-tray use: %w", err)
		}
		if !found {
			return fmt.Errorf("tunnel-tray use: %w: %q (use --force to select it anyway)", common.ErrInstanceNotFound, name)
		}
	}

	if err := a.store.Update(func(c *config.Config) { c.VPNName = name }); err != nil {
		return fmt.Errorf("tunnel-tray use: %w", err)
	}

	ctx := cmd.Context()
	session := a.newSession(nil, nil)
	session.Refresh(ctx)

	next := vpn.IdentityFromConfig(a.store.Snapshot())
	if next == session.Identity() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already selected\n", next.Unit())
		return nil
	}

	wasConnected := session.Connected()
	if !session.ApplySettings(ctx, next) {
		return fmt.Errorf("tunnel-tray use: %w: systemctl start %s", common.ErrCommandFailed, next.Unit())
	}
	if wasConnected {
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (restarted)\n", next.Unit())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", next.Unit())
	}
	return nil
}
