package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mrz1836/go-sanitize"

	"github.com/showtime-xyz/walletsession/internal/fileutil"
	"github.com/showtime-xyz/walletsession/internal/seal"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

const (
	fileExtension = ".keystore"
	formatVersion = 1
)

// DefaultName is used when no keystore name is given.
const DefaultName = "default"

//nolint:gochecknoglobals // compiled once
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Entry is the public part of a keystore: readable without the passphrase.
type Entry struct {
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

type keystoreFile struct {
	Entry         *Entry `json:"entry"`
	EncryptedSeed []byte `json:"encrypted_seed"`
}

// Store keeps keystores as JSON files in one directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// ValidateName checks that name is 1-64 characters of [a-zA-Z0-9_-].
func ValidateName(name string) error {
	if !nameRegex.MatchString(name) {
		suggestion := "keystore names are 1-64 letters, digits, underscores or hyphens"
		if s := SuggestName(name); s != "" {
			suggestion += fmt.Sprintf("; try %q", s)
		}
		return wserr.WithSuggestion(wserr.ErrInvalidInput, suggestion)
	}
	return nil
}

// SuggestName returns a sanitized version of an invalid name, or "".
func SuggestName(name string) string {
	s := sanitize.PathName(name)
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}

// Save encrypts seed under passphrase and writes a new keystore.
func (s *Store) Save(name string, seed []byte, passphrase string) (*Entry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if s.Exists(name) {
		return nil, wserr.WithDetails(wserr.ErrKeystoreExists, map[string]string{"name": name})
	}

	address, err := DeriveAddress(seed, 0)
	if err != nil {
		return nil, err
	}

	encrypted, err := seal.Seal(seed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypting seed: %w", err)
	}

	entry := &Entry{
		Name:      name,
		Address:   address,
		Path:      DerivationPath,
		CreatedAt: s.now().UTC(),
		Version:   formatVersion,
	}

	data, err := json.MarshalIndent(keystoreFile{Entry: entry, EncryptedSeed: encrypted}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling keystore: %w", err)
	}

	if err := fileutil.WritePrivate(s.path(name), data); err != nil {
		return nil, fileError(err, "writing", name)
	}
	return entry, nil
}

// Load decrypts the seed of keystore name. The caller must Destroy the secret.
func (s *Store) Load(name, passphrase string) (*Entry, *seal.Secret, error) {
	kf, err := s.read(name)
	if err != nil {
		return nil, nil, err
	}

	seed, err := seal.OpenSecret(kf.EncryptedSeed, passphrase)
	if err != nil {
		return nil, nil, wserr.WithDetails(wserr.ErrDecryptionFailed, map[string]string{"name": name})
	}
	return kf.Entry, seed, nil
}

// Info returns the public entry without decrypting anything.
func (s *Store) Info(name string) (*Entry, error) {
	kf, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return kf.Entry, nil
}

// Exists reports whether a keystore file is present.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.path(name))
	return err == nil
}

// List returns keystore names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading keystore directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExtension))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes keystore name.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return wserr.WithDetails(wserr.ErrKeystoreNotFound, map[string]string{"name": name})
		}
		return fileError(err, "removing", name)
	}
	return nil
}

func (s *Store) read(name string) (*keystoreFile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name)) //nolint:gosec // G304: name validated against [a-zA-Z0-9_-]
	if os.IsNotExist(err) {
		return nil, wserr.WithDetails(wserr.ErrKeystoreNotFound, map[string]string{"name": name})
	}
	if err != nil {
		return nil, fileError(err, "reading", name)
	}

	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil || kf.Entry == nil {
		return nil, wserr.Wrap(wserr.ErrConfigInvalid, "parsing keystore %s", name)
	}
	return &kf, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExtension)
}

// fileError reports permission failures as ErrPermission.
func fileError(err error, op, name string) error {
	if errors.Is(err, fs.ErrPermission) {
		return wserr.WithSuggestion(
			wserr.Wrap(wserr.ErrPermission, "%s keystore %s: %v", op, name, err),
			"check the ownership and mode of the keystore directory",
		)
	}
	return fmt.Errorf("%s keystore: %w", op, err)
}
