package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/showtime-xyz/walletsession/internal/fileutil"
	"github.com/showtime-xyz/walletsession/internal/seal"
)

const (
	fileExtension = ".session"
	keyLength     = seal.KeySize

	// probeTimeout keeps start-up responsive when the keychain daemon hangs.
	probeTimeout = 3 * time.Second
)

//nolint:gochecknoglobals // compiled once
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type sessionFile struct {
	Session       *Session `json:"session"`
	EncryptedSeed []byte   `json:"encrypted_seed"`
}

// FileManager is a Manager backed by session files and a Keyring.
type FileManager struct {
	dir       string
	keyring   Keyring
	available bool
	now       func() time.Time
	mu        sync.RWMutex
}

// NewManager creates a manager storing files under dir. A nil keyring means
// the OS keychain. Availability is probed once here.
func NewManager(dir string, kr Keyring) *FileManager {
	if kr == nil {
		kr = NewOSKeyring()
	}

	m := &FileManager{dir: dir, keyring: kr, now: time.Now}

	done := make(chan bool, 1)
	go func() { done <- probe(kr) }()
	select {
	case m.available = <-done:
	case <-time.After(probeTimeout):
	}

	return m
}

// Available implements Manager.
func (m *FileManager) Available() bool {
	return m.available
}

// Start implements Manager.
func (m *FileManager) Start(name, address string, seed []byte, ttl time.Duration) error {
	if !nameRegex.MatchString(name) {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return ErrKeyringUnavailable
	}

	key, err := seal.RandomBytes(keyLength)
	if err != nil {
		return fmt.Errorf("generating session key: %w", err)
	}
	defer seal.Zero(key)

	encrypted, err := seal.SealWithKey(seed, key)
	if err != nil {
		return fmt.Errorf("encrypting seed: %w", err)
	}

	if err := m.keyring.Set(ServiceName, keyringUser(name), base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("storing session key: %w", err)
	}

	now := m.now()
	data, err := json.MarshalIndent(sessionFile{
		Session: &Session{
			Name:      name,
			Address:   address,
			CreatedAt: now,
			ExpiresAt: now.Add(ClampTTL(ttl)),
		},
		EncryptedSeed: encrypted,
	}, "", "  ")
	if err == nil {
		err = fileutil.WritePrivate(m.path(name), data)
	}
	if err != nil {
		_ = m.keyring.Delete(ServiceName, keyringUser(name))
		return fmt.Errorf("writing session file: %w", err)
	}

	return nil
}

// Resume implements Manager. Expired, orphaned or unreadable sessions are
// removed as a side effect.
func (m *FileManager) Resume(name string) (*seal.Secret, *Session, error) {
	if !nameRegex.MatchString(name) {
		return nil, nil, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return nil, nil, ErrKeyringUnavailable
	}

	sf, err := m.read(name)
	if os.IsNotExist(err) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionCorrupted
	}

	if !sf.Session.ValidAt(m.now()) {
		_ = m.remove(name)
		return nil, nil, ErrSessionExpired
	}

	encoded, err := m.keyring.Get(ServiceName, keyringUser(name))
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionNotFound
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionCorrupted
	}
	defer seal.Zero(key)

	seed, err := seal.OpenWithKeySecret(sf.EncryptedSeed, key)
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionCorrupted
	}

	return seed, sf.Session, nil
}

// Active implements Manager.
func (m *FileManager) Active(name string) bool {
	if !nameRegex.MatchString(name) {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return false
	}
	sf, err := m.read(name)
	return err == nil && sf.Session.ValidAt(m.now())
}

// End implements Manager.
func (m *FileManager) End(name string) error {
	if !nameRegex.MatchString(name) {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(name)
}

// EndAll implements Manager.
func (m *FileManager) EndAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.names()
	if err != nil {
		return 0
	}

	n := 0
	for _, name := range names {
		if m.remove(name) == nil {
			n++
		}
	}
	return n
}

// List implements Manager.
func (m *FileManager) List() ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return nil, ErrKeyringUnavailable
	}

	names, err := m.names()
	if err != nil {
		return nil, err
	}

	now := m.now()
	var out []*Session
	for _, name := range names {
		sf, err := m.read(name)
		if err != nil || !sf.Session.ValidAt(now) {
			continue
		}
		out = append(out, sf.Session)
	}
	return out, nil
}

func (m *FileManager) read(name string) (*sessionFile, error) {
	data, err := os.ReadFile(m.path(name)) //nolint:gosec // G304: name matched nameRegex
	if err != nil {
		return nil, err
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	if sf.Session == nil {
		return nil, ErrSessionCorrupted
	}
	return &sf, nil
}

func (m *FileManager) names() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, fileExtension) {
			continue
		}
		if name := strings.TrimSuffix(n, fileExtension); nameRegex.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// remove deletes the keychain entry and the session file. Caller holds mu.
func (m *FileManager) remove(name string) error {
	_ = m.keyring.Delete(ServiceName, keyringUser(name))

	if err := os.Remove(m.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (m *FileManager) path(name string) string {
	return filepath.Join(m.dir, name+fileExtension)
}

func keyringUser(name string) string {
	return "keystore:" + name
}
