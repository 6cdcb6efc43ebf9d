package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when the reference does not resolve to a
// stored file.
var ErrNotFound = errors.New("file not found in store")

// FileStore is the evidence file collaborator. References returned by Save
// are opaque to callers and resolvable by the other methods.
type FileStore interface {
	Save(name string, r io.Reader) (ref string, err error)
	Exists(ref string) bool
	Delete(ref string) error
	Open(ref string) (io.ReadCloser, error)
}

// LocalFileStore keeps evidence files on the local disk under a single
// directory. References are uuid-prefixed sanitized file names.
type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalFileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *LocalFileStore) Dir() string {
	return s.dir
}

func (s *LocalFileStore) Save(name string, r io.Reader) (string, error) {
	ref := uuid.NewString() + "_" + sanitizeName(name)
	path := filepath.Join(s.dir, ref)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return ref, nil
}

func (s *LocalFileStore) Exists(ref string) bool {
	if ref == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(ref)))
	return err == nil
}

// Delete tolerates a missing file: removing evidence that is already gone is
// not an error.
func (s *LocalFileStore) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalFileStore) Open(ref string) (io.ReadCloser, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// sanitizeName strips path separators and whitespace from an uploaded file
// name so it is safe as part of a disk path.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
