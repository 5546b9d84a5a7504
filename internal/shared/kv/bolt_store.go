package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"time"

	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/oops"
	"go.etcd.io/bbolt"
)

const (
	boltFileName = "steam-browser.bolt"
	boltBucketKV = "kv" // key: storage key -> raw value
)

// BoltStore implements Store on a single bbolt database
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the bolt database inside basePath
func NewBoltStore(basePath string) (*BoltStore, error) {
	path := filepath.Join(basePath, boltFileName)

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, oops.With("path", path, "context", "failed to open bolt database").Wrap(err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketKV))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, oops.With("path", path, "context", "failed to create bucket").Wrap(err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketKV)).Get([]byte(key))
		if v == nil {
			return apperrors.ErrKeyNotFound
		}

		// v is only valid for the life of the transaction
		value = bytes.Clone(v)

		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			return nil, err
		}
		return nil, oops.With("key", key, "context", "failed to read value").Wrap(err)
	}

	return value, nil
}

func (s *BoltStore) Put(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketKV)).Put([]byte(key), value)
	})
}

// Update runs fn inside one read-write transaction, so the cycle is atomic
// with respect to every other writer of the database.
func (s *BoltStore) Update(key string, fn UpdateFunc) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketKV))

		var current []byte
		if v := bucket.Get([]byte(key)); v != nil {
			current = bytes.Clone(v)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(key), next)
	})
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}

	return err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Shutdown lets the DI container release the database file lock
func (s *BoltStore) Shutdown() error {
	return s.Close()
}
