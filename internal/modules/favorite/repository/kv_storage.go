package repository

import (
	"bytes"
	"errors"

	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/reshetovitsme/steam-browser/internal/shared/kv"
	"github.com/samber/oops"
)

// KVStorage implements Repository on top of a local key-value store
type KVStorage struct {
	store kv.Store
}

// NewKVStorage creates a favorites repository backed by store
func NewKVStorage(store kv.Store) Repository {
	return &KVStorage{store: store}
}

func (s *KVStorage) Load() (*domain.LoadResult, error) {
	data, err := s.store.Get(StorageKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			return &domain.LoadResult{Entries: domain.Collection{}}, nil
		}
		return nil, oops.With("key", StorageKey, "context", "failed to read favorites").Wrap(err)
	}
	if isBlank(data) {
		return &domain.LoadResult{Entries: domain.Collection{}}, nil
	}

	return Decode(data)
}

// Update refuses to run fn over a corrupt blob so the raw data stays
// available for recovery. Invalid elements are compacted away on write.
func (s *KVStorage) Update(fn MutateFunc) error {
	err := s.store.Update(StorageKey, func(current []byte) ([]byte, error) {
		entries := domain.Collection{}

		if !isBlank(current) {
			result, err := Decode(current)
			if err != nil {
				return nil, err
			}
			entries = result.Entries
		}

		next, err := fn(entries)
		if err != nil {
			return nil, err
		}

		return Encode(next)
	})
	if err != nil {
		return oops.With("key", StorageKey, "context", "failed to update favorites").Wrap(err)
	}

	return nil
}

// isBlank treats an empty or whitespace-only value like an absent key
func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
