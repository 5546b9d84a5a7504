package kv

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/oops"
)

// FileStore implements Store with one JSON file per key
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file-based store rooted at basePath
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(key)
}

func (s *FileStore) Put(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(key, value)
}

func (s *FileStore) Update(key string, fn UpdateFunc) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(key)
	if err != nil && !errors.Is(err, apperrors.ErrKeyNotFound) {
		return err
	}

	next, err := fn(current)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.write(key, next)
}

func (s *FileStore) Close() error {
	return nil
}

// Shutdown lets the DI container release the store
func (s *FileStore) Shutdown() error {
	return s.Close()
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.basePath, key+".json")
}

func (s *FileStore) read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrKeyNotFound
		}
		return nil, oops.With("key", key, "context", "failed to read value").Wrap(err)
	}

	return data, nil
}

// write replaces the value through a temp file and rename so readers never
// observe a partial blob.
func (s *FileStore) write(key string, value []byte) error {
	path := s.path(key)

	tmp, err := os.CreateTemp(s.basePath, "."+key+".*.tmp")
	if err != nil {
		return oops.With("key", key, "context", "failed to create temp file").Wrap(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return oops.With("key", key, "context", "failed to write value").Wrap(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return oops.With("key", key, "context", "failed to sync value").Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return oops.With("key", key, "context", "failed to close temp file").Wrap(err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return oops.With("key", key, "context", "failed to set permissions").Wrap(err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return oops.With("key", key, "path", path, "context", "failed to replace value").Wrap(err)
	}

	return nil
}
