package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/repository"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
)

// Service is the single entry point to the favorites collection. It keeps no
// cached copy: every call goes back to durable storage. Failures are logged
// and turned into neutral results.
type Service struct {
	repo repository.Repository
	// writeMu makes this service the single writer of the collection
	writeMu sync.Mutex
}

// New creates a new favorites service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// LoadAll returns the valid persisted favorites, or an empty collection when
// storage cannot be read.
func (s *Service) LoadAll(ctx context.Context) domain.Collection {
	return s.Inspect(ctx).Entries
}

// Inspect is LoadAll plus the number of persisted elements that were dropped
// as invalid.
func (s *Service) Inspect(ctx context.Context) domain.LoadResult {
	result, err := s.repo.Load()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load favorites", "error", err)
		return domain.LoadResult{Entries: domain.Collection{}}
	}

	if result.Dropped > 0 {
		slog.WarnContext(ctx, "Dropped invalid favorites entries", "dropped", result.Dropped, "kept", len(result.Entries))
	}

	return *result
}

// IsFavorite reports whether id is in the persisted collection
func (s *Service) IsFavorite(ctx context.Context, id int64) bool {
	return s.LoadAll(ctx).Contains(id)
}

// ToggleFavorite removes entry.ID when present and returns false, otherwise
// appends {ID, Name, ImageURL} and returns true. On failure nothing is written
// and the unchanged membership is returned when it is known, false otherwise.
func (s *Service) ToggleFavorite(ctx context.Context, entry domain.Entry) bool {
	if entry.ID <= 0 {
		slog.WarnContext(ctx, "Refusing to toggle favorite", "app_id", entry.ID, "error", apperrors.ErrInvalidAppID)
		return false
	}
	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "Favorite toggle cancelled", "app_id", entry.ID, "error", err)
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var (
		observed  bool
		favorited bool
	)

	err := s.repo.Update(func(current domain.Collection) (domain.Collection, error) {
		observed = true
		if current.Contains(entry.ID) {
			favorited = false
			return current.Without(entry.ID), nil
		}

		favorited = true
		return current.With(domain.Entry{
			ID:       entry.ID,
			Name:     entry.Name,
			ImageURL: entry.ImageURL,
		}), nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrCorruptFavorites) {
			slog.ErrorContext(ctx, "Favorites blob is corrupt, toggle skipped", "app_id", entry.ID, "error", err)
		} else {
			slog.ErrorContext(ctx, "Failed to toggle favorite", "app_id", entry.ID, "error", err)
		}

		// The write did not land, so membership is what the read saw
		if observed {
			return !favorited
		}
		return false
	}

	slog.InfoContext(ctx, "Favorite toggled", "app_id", entry.ID, "favorite", favorited)

	return favorited
}
