//go:build !linux

package vpn

import "errors"

// TunnelAddress is only implemented on Linux.
func TunnelAddress(iface string) (string, error) {
	return "", errors.New("tunnel address lookup is not supported on this platform")
}
