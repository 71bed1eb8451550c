package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// Credentials is what survives an app restart: the opaque backend token
// (remote variant) or the captured email identity (local variant).
type Credentials struct {
	Token     string    `json:"token,omitempty"`
	Email     string    `json:"email,omitempty"`
	Source    string    `json:"source"`     // "env" | "file"
	CreatedAt time.Time `json:"created_at"` // when we saved to file
}

// CredentialStore persists Credentials as a JSON file under dir.
type CredentialStore struct {
	dir string
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) path() string {
	return filepath.Join(s.dir, credFileName)
}

// Get returns the persisted credentials, or nil when not logged in.
// The TAREAS_TOKEN env var overrides the file.
func (s *CredentialStore) Get() (*Credentials, error) {
	// 1) env override
	env := strings.TrimSpace(os.Getenv("TAREAS_TOKEN"))
	if env != "" {
		return &Credentials{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	c.Token = stripBearer(c.Token)
	return &c, nil
}

// Save writes the credentials file with owner-only permissions.
func (s *CredentialStore) Save(c Credentials) error {
	c.Token = stripBearer(strings.TrimSpace(c.Token))
	c.Email = strings.TrimSpace(c.Email)
	if c.Token == "" && c.Email == "" {
		return fmt.Errorf("empty credentials")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	c.Source = "file"
	c.CreatedAt = time.Now()
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Remove deletes the credentials file. A missing file is not an error.
func (s *CredentialStore) Remove() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Token returns the current token or "" when absent. Handy as the token
// source for the API client.
func (s *CredentialStore) Token() string {
	c, _ := s.Get()
	if c == nil {
		return ""
	}
	return c.Token
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
