// Package keyring provides secure credential storage.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/yllada/tunnel-tray/common"
)

const (
	// ServiceName is the identifier used in the system keyring.
	ServiceName = "tunnel-tray"
	// ElevationAccount holds the password fed to the elevation wrapper.
	ElevationAccount = "elevation"

	credentialsFile = ".credentials"
	probeAccount    = "tunnel-tray-probe"
)

// Backend identifies where secrets are kept.
type Backend int

const (
	BackendSystem Backend = iota
	BackendFile
)

// String returns a human-readable backend name.
func (b Backend) String() string {
	if b == BackendFile {
		return "encrypted file"
	}
	return "system keyring"
}

// Options configures a Store.
type Options struct {
	// Service is the keyring service name; blank means ServiceName.
	Service string
	// FilePath is the fallback file; blank means ~/.config/tunnel-tray/.credentials.
	FilePath string
	// ForceFile skips the system keyring.
	ForceFile bool
}

// Store keeps secrets in the system keyring or, when that is unavailable,
// in a local file sealed with XChaCha20-Poly1305.
type Store struct {
	mu      sync.RWMutex
	service string
	path    string
	backend Backend
	key     []byte
	local   map[string]string
}

// New creates a Store, probing the system keyring unless opts.ForceFile.
func New(opts Options) (*Store, error) {
	s := &Store{service: opts.Service, path: opts.FilePath}
	if s.service == "" {
		s.service = ServiceName
	}

	if !opts.ForceFile && probeSystemKeyring(s.service) {
		s.backend = BackendSystem
		return s, nil
	}

	if err := s.initFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func probeSystemKeyring(service string) bool {
	if err := keyring.Set(service, probeAccount, "probe"); err != nil {
		common.LogDebug("System keyring unavailable: %v", err)
		return false
	}
	keyring.Delete(service, probeAccount)
	return true
}

func (s *Store) initFile() error {
	if s.path == "" {
		dir, err := common.GetConfigDir()
		if err != nil {
			return err
		}
		s.path = filepath.Join(dir, credentialsFile)
	}

	key, err := deriveKey(s.service)
	if err != nil {
		return fmt.Errorf("%w: deriving key: %w", common.ErrEncryption, err)
	}

	s.backend = BackendFile
	s.key = key
	s.local = make(map[string]string)
	return s.load()
}

// deriveKey binds the file key to this machine and user.
func deriveKey(service string) ([]byte, error) {
	hostname, _ := os.Hostname()
	secret := []byte(getMachineID())
	salt := []byte(fmt.Sprintf("%s-%s-%d", service, hostname, os.Getuid()))

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte("credential store")), key); err != nil {
		return nil, err
	}
	return key, nil
}

func getMachineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		// An unreadable file is replaced on the next write.
		common.LogWarn("Ignoring unreadable credential file %s: %v", s.path, err)
		return nil
	}
	return json.Unmarshal(plaintext, &s.local)
}

// save writes the local map. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.Marshal(s.local)
	if err != nil {
		return err
	}

	sealed, err := s.encrypt(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, sealed, 0600)
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(s.service))
	return []byte(base64.StdEncoding.EncodeToString(sealed)), nil
}

func (s *Store) decrypt(data []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(s.service))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// Backend reports where secrets are kept.
func (s *Store) Backend() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// Set saves secret under account.
func (s *Store) Set(account, secret string) error {
	if account == "" {
		return errors.New("account cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == BackendSystem {
		err := keyring.Set(s.service, account, secret)
		if err == nil {
			return nil
		}
		common.LogWarn("System keyring write failed, using encrypted file: %v", err)
		if err := s.initFile(); err != nil {
			return err
		}
	}

	s.local[account] = secret
	return s.save()
}

// Get retrieves the secret stored under account.
func (s *Store) Get(account string) (string, error) {
	if account == "" {
		return "", errors.New("account cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.backend == BackendFile {
		secret, ok := s.local[account]
		if !ok {
			return "", common.ErrSecretNotFound
		}
		return secret, nil
	}

	secret, err := keyring.Get(s.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", common.ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading system keyring: %w", err)
	}
	return secret, nil
}

// Delete removes the secret stored under account. Deleting a missing
// secret is not an error.
func (s *Store) Delete(account string) error {
	if account == "" {
		return errors.New("account cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == BackendFile {
		if _, ok := s.local[account]; !ok {
			return nil
		}
		delete(s.local, account)
		return s.save()
	}

	err := keyring.Delete(s.service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting from system keyring: %w", err)
	}
	return nil
}

// Exists reports whether a secret is stored under account.
func (s *Store) Exists(account string) bool {
	_, err := s.Get(account)
	return err == nil
}

// Secret returns the elevation password.
func (s *Store) Secret() (string, error) {
	return s.Get(ElevationAccount)
}
