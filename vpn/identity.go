package vpn

import (
	"fmt"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
)

// Identity names one instance of a templated service unit.
type Identity struct {
	Template string
	Instance string
}

// IdentityFromConfig builds the Identity selected by cfg.
func IdentityFromConfig(cfg config.Config) Identity {
	return Identity{Template: cfg.ServiceName, Instance: cfg.VPNName}
}

// Unit renders the systemd unit name, "template@instance".
func (id Identity) Unit() string {
	return id.Template + "@" + id.Instance
}

// Validate reports whether id names a controllable unit.
func (id Identity) Validate() error {
	if id.Template == "" {
		return fmt.Errorf("%w: empty service template", common.ErrInstanceNotFound)
	}
	if id.Instance == "" {
		return common.ErrNoInstance
	}
	return nil
}

func (id Identity) String() string {
	return id.Unit()
}
