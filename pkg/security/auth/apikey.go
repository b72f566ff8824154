package auth

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"sync"

	"mercator-hq/importcheck/pkg/config"
)

type keyEntry struct {
	name     string
	disabled bool
}

// KeyStore holds the configured API keys. Keys are indexed by their SHA-256
// digest so the secret itself is never compared byte by byte.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]keyEntry
}

// NewKeyStore builds a store from configuration, resolving key_env entries
// from the environment.
func NewKeyStore(keys []config.APIKeyConfig) (*KeyStore, error) {
	s := &KeyStore{keys: make(map[[sha256.Size]byte]keyEntry, len(keys))}
	for _, k := range keys {
		secret := k.Key
		if k.KeyEnv != "" {
			secret = os.Getenv(k.KeyEnv)
			if secret == "" {
				return nil, fmt.Errorf("API key %q: environment variable %s is empty", k.Name, k.KeyEnv)
			}
		}
		if err := s.Add(k.Name, secret, k.Disabled); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a key for the named client.
func (s *KeyStore) Add(name, key string, disabled bool) error {
	if key == "" {
		return fmt.Errorf("API key %q is empty", name)
	}
	sum := sha256.Sum256([]byte(key))

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.keys[sum]; ok {
		return fmt.Errorf("API key %q duplicates the key of %q", name, existing.name)
	}
	s.keys[sum] = keyEntry{name: name, disabled: disabled}
	return nil
}

// Remove deletes a key.
func (s *KeyStore) Remove(key string) {
	sum := sha256.Sum256([]byte(key))
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, sum)
}

// Validate returns the client owning key.
func (s *KeyStore) Validate(key string) (*Client, error) {
	sum := sha256.Sum256([]byte(key))

	s.mu.RLock()
	entry, ok := s.keys[sum]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidKey
	}
	if entry.disabled {
		return nil, ErrDisabledKey
	}
	return &Client{Name: entry.name}, nil
}

// Names returns the configured client names, sorted.
func (s *KeyStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.keys))
	for _, e := range s.keys {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}
