package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DiskStore keeps blobs under a base directory that is writable by the
// current process.
type DiskStore struct {
	base      string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStore(base string) *DiskStore {
	return &DiskStore{
		base: base,
		dirs: make(map[string]bool, 16),
	}
}

func (s *DiskStore) fullPath(path string) string {
	return filepath.Join(s.base, filepath.FromSlash(path))
}

func (s *DiskStore) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if s.dirs[dir] {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStore) Save(ctx context.Context, path string, r io.Reader, size int64) error {
	fileName := s.fullPath(path)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	_, err = io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *DiskStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(s.fullPath(path))
}

func (s *DiskStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.fullPath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *DiskStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.fullPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
