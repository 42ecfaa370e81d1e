// Package secrets keeps RPC URLs that embed API keys out of config.json.
// Config only records an opaque reference; the URL itself lives in the OS
// keychain.
package secrets

import (
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"github.com/ethereum/go-ethereum/crypto"
)

const keychainService = "w3probe"

// ErrNotFound is returned when a reference has no stored secret.
var ErrNotFound = errors.New("secret not found")

// Store saves and retrieves secret RPC URLs by reference.
type Store interface {
	Put(chainName, url string) (string, error)
	Get(ref string) (string, error)
	Delete(ref string) error
}

// Ref derives the stable keychain reference for a chain's RPC URL, so adding
// the same URL twice yields the same reference.
func Ref(chainName, url string) string {
	sum := crypto.Keccak256([]byte(strings.TrimSpace(url)))
	return keychainService + ".rpc." + chainName + "." + hex.EncodeToString(sum[:4])
}

// Keychain is a Store backed by the OS keychain.
type Keychain struct {
	ring keyring.Keyring
}

// OpenKeychain opens the platform keychain, falling back to an encrypted
// file under dir when no desktop keychain is reachable.
func OpenKeychain(dir string) (*Keychain, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.TerminalPrompt,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		if ring, err = keyring.Open(cfg); err != nil {
			return nil, fmt.Errorf("opening keychain: %w", err)
		}
	}
	return &Keychain{ring: ring}, nil
}

// Put stores url and returns its reference.
func (k *Keychain) Put(chainName, url string) (string, error) {
	ref := Ref(chainName, url)
	err := k.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(strings.TrimSpace(url)),
		Label: "w3probe RPC (" + chainName + ")",
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Get returns the URL stored under ref.
func (k *Keychain) Get(ref string) (string, error) {
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes ref. Deleting a missing ref is not an error.
func (k *Keychain) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// Memory is an in-process Store used by tests and when --no-keychain is set.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Put(chainName, url string) (string, error) {
	ref := Ref(chainName, url)
	m.mu.Lock()
	m.data[ref] = strings.TrimSpace(url)
	m.mu.Unlock()
	return ref, nil
}

func (m *Memory) Get(ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return v, nil
}

func (m *Memory) Delete(ref string) error {
	m.mu.Lock()
	delete(m.data, ref)
	m.mu.Unlock()
	return nil
}

// Resolve maps refs to URLs, skipping any that can no longer be read.
// The second return lists refs that failed.
func Resolve(s Store, refs []string) (urls []string, missing []string) {
	for _, ref := range refs {
		url, err := s.Get(ref)
		if err != nil {
			missing = append(missing, ref)
			continue
		}
		urls = append(urls, url)
	}
	return urls, missing
}
