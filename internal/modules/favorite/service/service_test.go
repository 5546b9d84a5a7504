package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/repository"
	"github.com/reshetovitsme/steam-browser/internal/shared/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	portal2 = domain.Entry{ID: 620, Name: "Portal 2", ImageURL: "https://cdn/620/header.jpg"}
	hades   = domain.Entry{ID: 1145360, Name: "Hades", ImageURL: "https://cdn/1145360/header.jpg"}
)

func newService(t *testing.T) (*Service, kv.Store) {
	t.Helper()

	store, err := kv.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(repository.NewKVStorage(store)), store
}

// failingRepo simulates unavailable device storage
type failingRepo struct {
	loadErr   error
	updateErr error
	current   domain.Collection
}

func (r *failingRepo) Load() (*domain.LoadResult, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return &domain.LoadResult{Entries: r.current}, nil
}

func (r *failingRepo) Update(fn repository.MutateFunc) error {
	if r.loadErr != nil {
		return r.loadErr
	}
	if _, err := fn(r.current); err != nil {
		return err
	}
	return r.updateErr
}

func TestLoadAll_EmptyOnFirstAccess(t *testing.T) {
	svc, _ := newService(t)

	favorites := svc.LoadAll(context.Background())
	assert.NotNil(t, favorites)
	assert.Empty(t, favorites)
}

func TestToggleFavorite_AddThenRemove(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.True(t, svc.ToggleFavorite(ctx, portal2))
	assert.True(t, svc.IsFavorite(ctx, portal2.ID))
	assert.Equal(t, domain.Collection{portal2}, svc.LoadAll(ctx))

	assert.False(t, svc.ToggleFavorite(ctx, portal2))
	assert.False(t, svc.IsFavorite(ctx, portal2.ID))
	assert.Empty(t, svc.LoadAll(ctx))
}

func TestToggleFavorite_TwiceRestoresMembership(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.True(t, svc.ToggleFavorite(ctx, hades))
	before := svc.LoadAll(ctx)

	svc.ToggleFavorite(ctx, portal2)
	svc.ToggleFavorite(ctx, portal2)

	assert.Equal(t, before, svc.LoadAll(ctx))
}

func TestToggleFavorite_KeepsIDsUniqueAndOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// re-adding moves an entry to the end of the collection
	sequence := []domain.Entry{portal2, hades, portal2, portal2, hades, hades}
	for _, entry := range sequence {
		svc.ToggleFavorite(ctx, entry)

		ids := svc.LoadAll(ctx).IDs()
		seen := map[int64]bool{}
		for _, id := range ids {
			assert.False(t, seen[id], "id %d persisted twice", id)
			seen[id] = true
		}
	}

	assert.Equal(t, []int64{portal2.ID, hades.ID}, svc.LoadAll(ctx).IDs())
}

func TestToggleFavorite_PersistsOnlyMinimalFields(t *testing.T) {
	svc, store := newService(t)

	svc.ToggleFavorite(context.Background(), portal2)

	raw, err := store.Get(repository.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":620,"name":"Portal 2","imageUrl":"https://cdn/620/header.jpg"}]`, string(raw))
}

func TestToggleFavorite_InvalidID(t *testing.T) {
	svc, store := newService(t)

	assert.False(t, svc.ToggleFavorite(context.Background(), domain.Entry{ID: 0, Name: "nothing"}))
	assert.False(t, svc.ToggleFavorite(context.Background(), domain.Entry{ID: -5, Name: "nothing"}))

	_, err := store.Get(repository.StorageKey)
	assert.Error(t, err, "no write expected for invalid ids")
}

func TestToggleFavorite_CancelledContext(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, svc.ToggleFavorite(ctx, portal2))
	assert.Empty(t, svc.LoadAll(context.Background()))
}

func TestLoadAll_MalformedBlobKeepsValidSubset(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, store.Put(repository.StorageKey, []byte(
		`[{"id":620,"name":"Portal 2","imageUrl":"https://cdn/620/header.jpg"},{"id":400,"imageUrl":"x"}]`,
	)))

	assert.Equal(t, domain.Collection{portal2}, svc.LoadAll(context.Background()))

	report := svc.Inspect(context.Background())
	assert.Equal(t, 1, report.Dropped)
}

func TestLoadAll_CorruptBlobIsEmptyAndToggleRefused(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, store.Put(repository.StorageKey, []byte(`garbage`)))
	ctx := context.Background()

	assert.Empty(t, svc.LoadAll(ctx))
	assert.False(t, svc.IsFavorite(ctx, portal2.ID))
	assert.False(t, svc.ToggleFavorite(ctx, portal2))

	raw, err := store.Get(repository.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, `garbage`, string(raw))
}

func TestToggleFavorite_EmptyStoredValueActsAsFirstAccess(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, store.Put(repository.StorageKey, []byte("")))
	ctx := context.Background()

	assert.Empty(t, svc.LoadAll(ctx))
	assert.True(t, svc.ToggleFavorite(ctx, portal2))
	assert.Equal(t, []int64{portal2.ID}, svc.LoadAll(ctx).IDs())
}

func TestStorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure", func(t *testing.T) {
		svc := New(&failingRepo{loadErr: errors.New("device storage unavailable")})

		assert.Empty(t, svc.LoadAll(ctx))
		assert.False(t, svc.IsFavorite(ctx, portal2.ID))
		assert.False(t, svc.ToggleFavorite(ctx, portal2))
	})

	t.Run("write failure on add keeps old state", func(t *testing.T) {
		svc := New(&failingRepo{updateErr: errors.New("quota exceeded")})

		assert.False(t, svc.ToggleFavorite(ctx, portal2))
	})

	t.Run("write failure on remove keeps old state", func(t *testing.T) {
		svc := New(&failingRepo{
			updateErr: errors.New("quota exceeded"),
			current:   domain.Collection{portal2},
		})

		assert.True(t, svc.ToggleFavorite(ctx, portal2))
	})
}

func TestToggleFavorite_ConcurrentTogglesAreSerialized(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	const games = 25

	var wg sync.WaitGroup
	for i := 1; i <= games; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			svc.ToggleFavorite(ctx, domain.Entry{ID: id, Name: "game", ImageURL: "img"})
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, svc.LoadAll(ctx), games)
}
