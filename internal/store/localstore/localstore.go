package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/camoris/tareas/internal/model"
)

const keyPrefix = "todos_v1_"

// StorageError is a failed blob write. In-memory state is the caller's
// and is left as the caller already set it.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: save %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Key returns the namespaced storage key for an identity.
func Key(identity string) string { return keyPrefix + identity }

// Store keeps one JSON blob per identity under dir. Each save rewrites
// the identity's whole collection; the last writer wins.
type Store struct {
	dir string
}

func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) path(identity string) string {
	return filepath.Join(s.dir, Key(identity)+".json")
}

// Load returns the identity's ordered collection. A missing blob or an
// empty identity yields an empty list, never an error.
func (s *Store) Load(identity string) ([]model.Todo, error) {
	if identity == "" {
		return []model.Todo{}, nil
	}
	b, err := os.ReadFile(s.path(identity))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var todos []model.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return todos, nil
}

// Save overwrites the identity's whole collection. The write goes to a
// temp file first and is renamed into place so readers never see a
// half-written blob.
func (s *Store) Save(identity string, todos []model.Todo) error {
	if identity == "" {
		return &StorageError{Key: Key(identity), Err: fmt.Errorf("empty identity")}
	}
	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return &StorageError{Key: Key(identity), Err: fmt.Errorf("json marshal: %w", err)}
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return &StorageError{Key: Key(identity), Err: fmt.Errorf("mkdir: %w", err)}
	}
	p := s.path(identity)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return &StorageError{Key: Key(identity), Err: fmt.Errorf("write file: %w", err)}
	}
	if err := os.Rename(tmp, p); err != nil {
		return &StorageError{Key: Key(identity), Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}
