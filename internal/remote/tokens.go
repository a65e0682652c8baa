package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
	"github.com/and161185/nutrito/internal/model"
)

const (
	serviceName = "nutrito"
	sessionKey  = "session"
)

// OpenKeyring opens the OS keyring, falling back to an encrypted file under dir.
func OpenKeyring(dir string) (keyring.Keyring, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config", "nutrito", "credentials")
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("nutrito-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// TokenStore keeps the current session in a keyring with an in-memory copy.
type TokenStore struct {
	ring keyring.Keyring

	mu     sync.RWMutex
	cur    *model.Session
	loaded bool
}

// NewTokenStore wraps ring.
func NewTokenStore(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

// Load returns the stored session, or nil when there is none.
func (t *TokenStore) Load() (*model.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return copySession(t.cur), nil
	}

	item, err := t.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		t.loaded = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(item.Data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	t.cur, t.loaded = &s, true
	return copySession(t.cur), nil
}

// Save stores s.
func (t *TokenStore) Save(s model.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ring.Set(keyring.Item{Key: sessionKey, Data: b, Label: "nutrito session"}); err != nil {
		return fmt.Errorf("setting session: %w", err)
	}
	t.cur, t.loaded = &s, true
	return nil
}

// Clear drops the stored session.
func (t *TokenStore) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur, t.loaded = nil, true
	if err := t.ring.Remove(sessionKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Token returns the cached access token, loading it on first use.
func (t *TokenStore) Token() string {
	s, err := t.Load()
	if err != nil || s == nil {
		return ""
	}
	return s.AccessToken
}

func copySession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
