// Package config provides configuration management for Tunnel Tray.
// It handles loading, saving, and sharing application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/tunnel-tray/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// SudoCommand is the elevation wrapper, e.g. "sudo" or "sudo -S".
	SudoCommand string `yaml:"sudo_command"`
	// UseSudo wraps privileged commands with SudoCommand.
	UseSudo bool `yaml:"use_sudo"`
	// SudoPasswordStdin feeds the stored elevation password to the wrapper.
	SudoPasswordStdin bool `yaml:"sudo_password_stdin"`
	// ShowWarning notifies when the tunnel drops without a deliberate stop.
	ShowWarning bool `yaml:"show_warning"`
	// VPNName is the selected instance of the service template.
	VPNName string `yaml:"vpn_name"`
	// ServiceName is the systemd template unit, without "@".
	ServiceName string `yaml:"service_name"`
	// ConfigLocation is the glob enumerating instance configs.
	ConfigLocation string `yaml:"config_location"`
	// TunnelInterface is the network interface brought up by the service.
	TunnelInterface string `yaml:"tunnel_interface"`
	// PollInterval is the status polling period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// DoubleClickInterval is the double-activation window.
	DoubleClickInterval time.Duration `yaml:"double_click_interval"`
	// CommandTimeout bounds each subprocess; zero disables it.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SudoCommand:         common.DefaultElevationCommand,
		UseSudo:             true,
		SudoPasswordStdin:   false,
		ShowWarning:         false,
		ServiceName:         common.DefaultServiceTemplate,
		ConfigLocation:      common.DefaultConfigLocation,
		TunnelInterface:     common.DefaultTunnelInterface,
		PollInterval:        common.PollInterval,
		DoubleClickInterval: common.DoubleClickInterval,
		CommandTimeout:      common.CommandTimeout,
	}
}

// Elevation returns the elevation settings carried by c.
func (c *Config) Elevation() common.ElevationConfig {
	return common.ElevationConfig{
		Enabled:       c.UseSudo,
		Command:       c.SudoCommand,
		PasswordStdin: c.SudoPasswordStdin,
	}
}

// DefaultPath returns ~/.config/tunnel-tray/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}

// Load loads the configuration from path.
// If the file doesn't exist, it creates one with default values.
// Keys missing from an existing file keep their defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error opening configuration: %w", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing configuration: %w", common.ErrConfigLoad, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", common.ErrConfigLoad, err)
	}

	return config, nil
}

// validate verifies that configuration values are valid.
// Blank or non-positive values fall back to defaults; the instance name is
// rejected when it could escape the unit name.
func (c *Config) validate() error {
	defaults := DefaultConfig()

	if strings.TrimSpace(c.SudoCommand) == "" {
		c.SudoCommand = defaults.SudoCommand
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = defaults.ServiceName
	}
	if c.ConfigLocation == "" {
		c.ConfigLocation = defaults.ConfigLocation
	}
	if c.TunnelInterface == "" {
		c.TunnelInterface = defaults.TunnelInterface
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.DoubleClickInterval <= 0 {
		c.DoubleClickInterval = defaults.DoubleClickInterval
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative, got %s", c.CommandTimeout)
	}

	if strings.ContainsAny(c.ServiceName, "@/ ") {
		return fmt.Errorf("service_name %q must be a bare template name", c.ServiceName)
	}
	if strings.ContainsAny(c.VPNName, "/ ") {
		return fmt.Errorf("vpn_name %q contains invalid characters", c.VPNName)
	}
	return nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %w", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %w", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: error saving configuration: %w", common.ErrConfigSave, err)
	}

	return nil
}
