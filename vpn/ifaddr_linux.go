//go:build linux

package vpn

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// TunnelAddress returns the first IPv4 address of iface, or "" when the
// interface has none.
func TunnelAddress(iface string) (string, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", iface, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("listing addresses of %s: %w", iface, err)
	}
	if len(addrs) == 0 {
		return "", nil
	}
	return addrs[0].IP.String(), nil
}
