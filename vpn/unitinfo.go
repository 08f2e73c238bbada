package vpn

import (
	"context"
	"fmt"
	"time"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
)

// UnitInfo is a snapshot of systemd's view of a unit.
type UnitInfo struct {
	Unit        string
	Description string
	LoadState   string
	ActiveState string
	SubState    string
	MainPID     uint32
	// ActiveSince is zero when the unit has never been active this boot.
	ActiveSince time.Time
	// InactiveSince is zero when the unit has not gone inactive this boot.
	InactiveSince time.Time
}

// DescribeUnit reads unit properties from systemd over the system bus.
// It is informational only and never affects the polled state.
func DescribeUnit(ctx context.Context, unit string) (UnitInfo, error) {
	conn, err := sddbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return UnitInfo{}, fmt.Errorf("connecting to systemd: %w", err)
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return UnitInfo{}, fmt.Errorf("reading properties of %s: %w", unit, err)
	}

	info := unitInfoFromProperties(unit, props)

	if svc, err := conn.GetUnitTypePropertiesContext(ctx, unit, "Service"); err == nil {
		if pid, ok := svc["MainPID"].(uint32); ok {
			info.MainPID = pid
		}
	}
	return info, nil
}

func unitInfoFromProperties(unit string, props map[string]any) UnitInfo {
	info := UnitInfo{Unit: unit}
	info.Description, _ = props["Description"].(string)
	info.LoadState, _ = props["LoadState"].(string)
	info.ActiveState, _ = props["ActiveState"].(string)
	info.SubState, _ = props["SubState"].(string)
	info.ActiveSince = usecTime(props["ActiveEnterTimestamp"])
	info.InactiveSince = usecTime(props["InactiveEnterTimestamp"])
	return info
}

// usecTime converts a systemd microsecond timestamp; 0 means never.
func usecTime(v any) time.Time {
	usec, ok := v.(uint64)
	if !ok || usec == 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(usec))
}
