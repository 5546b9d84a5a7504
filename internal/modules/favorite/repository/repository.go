package repository

import (
	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
)

// StorageKey is the single local-storage key owned by the favorites store
const StorageKey = "favorites"

// MutateFunc computes the next collection from the persisted one. Returning
// kv.ErrSkipWrite leaves storage untouched.
type MutateFunc func(current domain.Collection) (domain.Collection, error)

// Repository defines persistence for the favorites collection
type Repository interface {
	Load() (*domain.LoadResult, error)
	// Update applies fn to the persisted collection and writes the result
	// back as one unit.
	Update(fn MutateFunc) error
}
