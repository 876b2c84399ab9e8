package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/audithawk/internal/common"
)

// Credentials is the signed-in state kept between runs.
type Credentials struct {
	SavedAt time.Time `json:"saved_at"`
	User    *User     `json:"user"`
	Token   string    `json:"token"`
}

// FileStore keeps Credentials in a user-only JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored credentials. It returns common.ErrNotLoggedIn when
// nothing has been saved.
func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path) // #nosec G304
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, common.ErrNotLoggedIn
	}
	return &creds, nil
}

// Save writes the token and user from a successful sign-in.
func (s *FileStore) Save(payload *AuthPayload) (*Credentials, error) {
	if payload == nil || payload.Token == "" {
		return nil, fmt.Errorf("%w: no token to save", ErrRejected)
	}

	creds := &Credentials{
		Token:   payload.Token,
		User:    payload.User,
		SavedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write credentials: %w", err)
	}
	return creds, nil
}

// Clear removes the stored credentials. Clearing an empty store is not an
// error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
