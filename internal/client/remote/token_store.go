package remote

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Tokens is the persisted sign-in state.
type Tokens struct {
	UserID        string    `yaml:"user_id"`
	Email         string    `yaml:"email"`
	EmailVerified bool      `yaml:"email_verified"`
	CompanyID     string    `yaml:"company_id"`
	AccessToken   string    `yaml:"access_token"`
	RefreshToken  string    `yaml:"refresh_token"`
	ExpiresAt     time.Time `yaml:"expires_at,omitempty"`
}

type TokenStore interface {
	// Load returns nil when nothing is stored.
	Load() (*Tokens, error)
	Save(t Tokens) error
	Clear() error
}

// FileTokenStore keeps Tokens in a YAML file readable only by the owner.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var t Tokens
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if t.AccessToken == "" {
		return nil, nil
	}
	return &t, nil
}

func (s *FileTokenStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
