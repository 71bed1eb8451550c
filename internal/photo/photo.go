package photo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// StorageError is a failed write into the photo directory. The source
// file was readable; the data dir is the problem.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string { return fmt.Sprintf("photo store %s: %v", e.Path, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Store copies picked images into a photos/ directory under the data
// dir, one file per attachment, named by millisecond timestamp. The
// original file is left in place.
type Store struct {
	dir string
}

func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "photos")}
}

// Attach copies src into the photo directory and returns the stored
// path. A missing source file is the caller's validation problem;
// anything that goes wrong on the destination side is a *StorageError.
func (s *Store) Attach(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open photo: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", &StorageError{Path: s.dir, Err: err}
	}
	dest := filepath.Join(s.dir, fmt.Sprintf("%d.jpg", time.Now().UnixMilli()))
	out, err := os.Create(dest)
	if err != nil {
		return "", &StorageError{Path: dest, Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return "", &StorageError{Path: dest, Err: err}
	}
	return dest, nil
}
