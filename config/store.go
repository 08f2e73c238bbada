package config

import (
	"sync"

	"github.com/yllada/tunnel-tray/common"
)

// Store holds the live configuration shared by every component.
// Readers always see the latest confirmed values; writers go through Update,
// which persists before publishing.
type Store struct {
	mu          sync.RWMutex
	path        string
	cfg         Config
	subscribers []func(Config)
}

// NewStore loads path and returns a Store serving it.
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: *cfg}, nil
}

// NewMemoryStore returns a Store seeded with cfg that never touches disk.
func NewMemoryStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Path returns the backing file, or "" for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Elevation returns the elevation settings. It is read on every privileged
// invocation, so changes apply to the next command.
func (s *Store) Elevation() common.ElevationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Elevation()
}

// ShowWarning reports whether unexpected disconnects should be announced.
func (s *Store) ShowWarning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ShowWarning
}

// Subscribe registers fn to receive the configuration after every Update or
// Reload.
func (s *Store) Subscribe(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Update applies fn to a copy of the configuration, validates and persists
// it, then publishes it. On error the live configuration is unchanged.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	next := s.cfg
	fn(&next)
	if err := next.validate(); err != nil {
		s.mu.Unlock()
		return common.WrapError(common.ErrConfigSave, err.Error())
	}
	if s.path != "" {
		if err := next.Save(s.path); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.cfg = next
	subs := append([]func(Config){}, s.subscribers...)
	s.mu.Unlock()

	s.publish(subs, next)
	return nil
}

// Reload re-reads the backing file and publishes the result.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = *cfg
	subs := append([]func(Config){}, s.subscribers...)
	s.mu.Unlock()

	s.publish(subs, *cfg)
	return nil
}

func (s *Store) publish(subs []func(Config), cfg Config) {
	for _, fn := range subs {
		fn(cfg)
	}
}
