package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// LocalStore keeps attachments on disk under baseDir/<offer id>/.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a local disk store rooted at baseDir.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) dir(offerID uint) string {
	return filepath.Join(s.baseDir, strconv.FormatUint(uint64(offerID), 10))
}

// Put stages the blob in a temp file and renames it into place, so a
// failed write never leaves a half-written attachment behind.
func (s *LocalStore) Put(offerID uint, name string, r io.Reader) error {
	name, err := SanitizeName(name)
	if err != nil {
		return err
	}

	dir := s.dir(offerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, filepath.Join(dir, name))
}

// List enumerates the offer's files. A directory that does not exist
// yet lists as empty.
func (s *LocalStore) List(offerID uint) ([]string, error) {
	entries, err := os.ReadDir(s.dir(offerID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Delete removes one file; missing files are ignored.
func (s *LocalStore) Delete(offerID uint, name string) error {
	name, err := SanitizeName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir(offerID), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DeleteAll removes the offer's directory and everything in it.
func (s *LocalStore) DeleteAll(offerID uint) error {
	return os.RemoveAll(s.dir(offerID))
}
