package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/tunnel-tray/history"
)

var (
	logsShowIP   bool
	historyLimit int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tunnel journal for the current boot",
	Long:  "Print journalctl -b -u <unit> for the selected unit, elevated like start and stop.",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tunnel state transitions",
	Long:  "Show the transitions recorded by the tray, the TUI and the watch daemon.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	logsCmd.Flags().BoolVar(&logsShowIP, "ip", false, "print the tunnel interface address above the journal")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of transitions to show")
	rootCmd.AddCommand(logsCmd, historyCmd)
}

func runLogs(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray logs: %w", err)
	}
	if _, err := a.identity(); err != nil {
		return fmt.Errorf("tunnel-tray logs: %w", err)
	}

	w := cmd.OutOrStdout()
	if !logsShowIP {
		w.Write(a.logs.Fetch(cmd.Context()))
		return nil
	}

	report := a.logs.Report(cmd.Context(), a.store.Snapshot().TunnelInterface)
	fmt.Fprint(w, report.String())
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	path, err := history.DefaultPath()
	if err != nil {
		return fmt.Errorf("tunnel-tray history: %w", err)
	}
	store, err := history.Open(path, 0)
	if err != nil {
		return fmt.Errorf("tunnel-tray history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("tunnel-tray history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No transitions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUNIT\tFROM\tTO\tNOTE")
	fmt.Fprintln(w, "----\t----\t----\t--\t----")
	for _, e := range entries {
		note := ""
		switch {
		case e.Warned:
			note = "unexpected, warned"
		case e.Unexpected:
			note = "unexpected"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.RecordedAt.Local().Format(time.DateTime), e.Unit, e.Previous, e.Current, note)
	}
	return w.Flush()
}
