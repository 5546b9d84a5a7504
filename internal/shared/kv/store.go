// Package kv is the device-local key-value storage behind the favorites store.
// Values are opaque byte blobs; every backend writes a key as one unit.
package kv

import (
	"errors"
	"os"
	"strings"

	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/oops"
)

// ErrSkipWrite may be returned by an UpdateFunc to leave the stored value untouched.
var ErrSkipWrite = errors.New("skip write")

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the replacement.
type UpdateFunc func(current []byte) ([]byte, error)

// Store defines local key-value persistence
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	// Update runs a read-modify-write cycle that no other Put or Update on the
	// same store can interleave with.
	Update(key string, fn UpdateFunc) error
	Close() error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*BoltStore)(nil)
)

// Open creates the backend selected by driver under basePath
func Open(driver config.StorageDriver, basePath string) (Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	switch driver {
	case config.StorageDriverFile:
		return NewFileStore(basePath)
	case config.StorageDriverBolt:
		return NewBoltStore(basePath)
	default:
		return nil, oops.With("driver", driver).Wrap(config.ErrInvalidStorageDriver)
	}
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return oops.With("key", key).Wrap(apperrors.ErrInvalidKey)
	}
	return nil
}
