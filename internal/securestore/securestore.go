// Package securestore is the local encrypted key-value store standing in
// for the device keystore.
package securestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrNotFound  = errors.New("securestore: key not found")
	errCorrupted = errors.New("securestore: sealed value corrupted")
)

type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// FileStore keeps sealed values in a single JSON file. Values are encrypted
// with secretbox under a key derived from the configured secret; keys are
// stored in the clear.
type FileStore struct {
	path string
	key  [32]byte
	mu   sync.Mutex
}

func NewFileStore(path, secret string) *FileStore {
	return &FileStore{path: path, key: sha256.Sum256([]byte(secret))}
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return err
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &f.key)
	entries[key] = base64.StdEncoding.EncodeToString(sealed)

	return f.save(entries)
}

func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", err
	}
	encoded, ok := entries[key]
	if !ok {
		return "", ErrNotFound
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < 24 {
		return "", errCorrupted
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &f.key)
	if !ok {
		return "", errCorrupted
	}
	return string(plain), nil
}

// Delete removes a key; deleting an absent key is a no-op.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.save(entries)
}

func (f *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *FileStore) save(entries map[string]string) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}
