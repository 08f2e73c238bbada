package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yllada/tunnel-tray/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SudoCommand != "sudo" {
		t.Errorf("SudoCommand = %q, want sudo", cfg.SudoCommand)
	}
	if !cfg.UseSudo {
		t.Error("UseSudo should default to true")
	}
	if cfg.ShowWarning {
		t.Error("ShowWarning should default to false")
	}
	if cfg.ServiceName != "thu4over6-client" {
		t.Errorf("ServiceName = %q, want thu4over6-client", cfg.ServiceName)
	}
	if cfg.ConfigLocation != "/etc/4over6/*.conf" {
		t.Errorf("ConfigLocation = %q", cfg.ConfigLocation)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.CommandTimeout != 0 {
		t.Errorf("CommandTimeout = %v, want 0", cfg.CommandTimeout)
	}
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServiceName != common.DefaultServiceTemplate {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Load() should write defaults: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.VPNName = "home"
	cfg.ShowWarning = true
	cfg.SudoCommand = "doas"
	cfg.PollInterval = 2 * time.Second
	cfg.CommandTimeout = 30 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "poll_interval: 2s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", *loaded, *cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vpn_name: office\nuse_sudo: false\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VPNName != "office" || cfg.UseSudo {
		t.Errorf("explicit keys not applied: %+v", cfg)
	}
	if cfg.ServiceName != common.DefaultServiceTemplate || cfg.PollInterval != common.PollInterval {
		t.Errorf("missing keys should keep defaults: %+v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		content  string
		expected string
	}{
		{"theme: dark\n", "unknown key"},
		{"service_name: evil@unit\n", "template with instance"},
		{"vpn_name: ../etc\n", "path in instance"},
		{"command_timeout: -1s\n", "negative timeout"},
		{"poll_interval: soon\n", "bad duration"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !errors.Is(err, common.ErrConfigLoad) {
				t.Errorf("Load() error = %v, want ErrConfigLoad", err)
			}
		})
	}
}

func TestValidate_FillsBlanks(t *testing.T) {
	cfg := &Config{SudoCommand: "  ", PollInterval: -time.Second}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.SudoCommand != "sudo" {
		t.Errorf("SudoCommand = %q, want sudo", cfg.SudoCommand)
	}
	if cfg.PollInterval != common.PollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.PollInterval)
	}
	if cfg.DoubleClickInterval != common.DoubleClickInterval {
		t.Errorf("DoubleClickInterval = %v, want default", cfg.DoubleClickInterval)
	}
}

func TestElevation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SudoCommand = "sudo -S"
	cfg.SudoPasswordStdin = true

	got := cfg.Elevation()
	want := common.ElevationConfig{Enabled: true, Command: "sudo -S", PasswordStdin: true}
	if got != want {
		t.Errorf("Elevation() = %+v, want %+v", got, want)
	}
}

func TestStore_UpdatePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	var published []Config
	store.Subscribe(func(c Config) { published = append(published, c) })

	if err := store.Update(func(c *Config) {
		c.UseSudo = false
		c.VPNName = "home"
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if store.Elevation().Enabled {
		t.Error("Elevation() should reflect the update immediately")
	}
	if len(published) != 1 || published[0].VPNName != "home" {
		t.Errorf("subscribers got %+v", published)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.VPNName != "home" || reloaded.UseSudo {
		t.Errorf("Update() did not persist: %+v", reloaded)
	}
}

func TestStore_UpdateRejectsInvalid(t *testing.T) {
	store := NewMemoryStore(*DefaultConfig())
	notified := false
	store.Subscribe(func(Config) { notified = true })

	err := store.Update(func(c *Config) { c.ServiceName = "a@b" })
	if !errors.Is(err, common.ErrConfigSave) {
		t.Fatalf("Update() error = %v, want ErrConfigSave", err)
	}
	if store.Snapshot().ServiceName != common.DefaultServiceTemplate {
		t.Error("failed Update() must not change the live config")
	}
	if notified {
		t.Error("failed Update() must not notify")
	}
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("show_warning: true\nvpn_name: lab\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var got Config
	store.Subscribe(func(c Config) { got = c })
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if !store.ShowWarning() || got.VPNName != "lab" {
		t.Errorf("Reload() did not publish new values: %+v", got)
	}
}
