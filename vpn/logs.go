package vpn

import (
	"context"
	"fmt"

	"github.com/yllada/tunnel-tray/common"
)

// IdentitySource supplies the unit whose logs are fetched.
type IdentitySource interface {
	Identity() Identity
}

// LogRetriever reads the current boot's journal for the bound unit.
type LogRetriever struct {
	runner Runner
	ids    IdentitySource
}

// NewLogRetriever creates a LogRetriever. Passing the Controller as ids keeps
// both bound to the same unit across rebinds.
func NewLogRetriever(runner Runner, ids IdentitySource) *LogRetriever {
	return &LogRetriever{runner: runner, ids: ids}
}

// Fetch returns the journal text for the unit. Output captured before a
// nonzero exit is still returned.
func (l *LogRetriever) Fetch(ctx context.Context) []byte {
	id := l.ids.Identity()
	if err := id.Validate(); err != nil {
		common.LogWarn("Cannot fetch logs: %v", err)
		return nil
	}

	res := l.runner.Run(ctx, []string{"journalctl", "-b", "--no-pager", "-u", id.Unit()}, RunOptions{Elevate: true})
	if !res.Success() {
		common.LogDebug("journalctl for %s exited %d", id.Unit(), res.ExitCode)
	}
	return res.Output
}

// LogReport is the journal of the unit with the tunnel address, as shown by
// the log viewers.
type LogReport struct {
	Unit    string
	Address string
	Text    []byte
}

// Report fetches the journal and looks up the IPv4 address of iface.
func (l *LogRetriever) Report(ctx context.Context, iface string) LogReport {
	report := LogReport{
		Unit: l.ids.Identity().Unit(),
		Text: l.Fetch(ctx),
	}
	if iface != "" {
		addr, err := TunnelAddress(iface)
		if err != nil {
			common.LogDebug("No address for %s: %v", iface, err)
		}
		report.Address = addr
	}
	return report
}

// Header is the one-line summary above the journal text.
func (r LogReport) Header() string {
	addr := r.Address
	if addr == "" {
		addr = "none"
	}
	return fmt.Sprintf("%s  IP: %s", r.Unit, addr)
}

func (r LogReport) String() string {
	return r.Header() + "\n\n" + string(r.Text)
}
