// Package keyring provides an encrypted file-backed secrets.Store.
//
// Secrets are kept as a JSON map, sealed with AES-GCM under a key derived from
// a passphrase via scrypt. The file is written atomically (temp file + rename)
// with 0600 permissions so a crashed write never leaves a torn keyring behind.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Interactive-login strength; the keyring is opened once
// per process, not per request.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	keyLen       = 32
	saltLen      = 16
	fileVersion  = 1
	filePermMode = 0600
)

// ErrBadPassphrase is returned when the keyring file exists but cannot be
// opened with the given passphrase.
var ErrBadPassphrase = errors.New("keyring: wrong passphrase or corrupted file")

// keyringFile is the on-disk envelope. Salt is per-file; Sealed is
// nonce || AES-GCM ciphertext of the JSON value map.
type keyringFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Sealed  []byte `json:"sealed"`
}

// FileStore is a secrets.Store backed by an encrypted file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	salt   []byte
	key    []byte
	values map[string]string
}

// Open loads (or initializes) the keyring at path using passphrase.
// If path is empty, defaults to ~/.config/stockauth/keyring.enc.
func Open(path, passphrase string) (*FileStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			home, herr := os.UserHomeDir()
			if herr != nil {
				return nil, fmt.Errorf("could not determine config directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
		path = filepath.Join(configDir, "stockauth", "keyring.enc")
	}

	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Fresh keyring: generate a salt now, write on first Set.
		s.salt = make([]byte, saltLen)
		if _, err := io.ReadFull(rand.Reader, s.salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		s.key, err = scrypt.Key([]byte(passphrase), s.salt, scryptN, scryptR, scryptP, keyLen)
		if err != nil {
			return nil, fmt.Errorf("key derivation failed: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var file keyringFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyring file: %w", err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("unsupported keyring version %d", file.Version)
	}

	s.salt = file.Salt
	s.key, err = scrypt.Key([]byte(passphrase), s.salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	plain, err := unseal(s.key, file.Sealed)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	if err := json.Unmarshal(plain, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse keyring contents: %w", err)
	}
	return s, nil
}

// Get retrieves the value for key. A missing key is ("", nil).
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

// Set stores value under key and persists the keyring.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.saveLocked()
}

// Remove deletes key and persists the keyring.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.saveLocked()
}

// Path returns the keyring file location.
func (s *FileStore) Path() string {
	return s.path
}

// saveLocked writes the encrypted keyring to disk. Caller must hold s.mu.
func (s *FileStore) saveLocked() error {
	plain, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode keyring contents: %w", err)
	}
	sealed, err := seal(s.key, plain)
	if err != nil {
		return err
	}
	data, err := json.Marshal(keyringFile{
		Version: fileVersion,
		Salt:    s.salt,
		Sealed:  sealed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode keyring file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermMode); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace keyring: %w", err)
	}
	return nil
}

func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

func unseal(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	ns := gcm.NonceSize()
	if len(blob) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, blob[:ns], blob[ns:], nil)
}
