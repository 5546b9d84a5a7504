package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/client"
	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/reshetovitsme/steam-browser/internal/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *testutil.SteamServer) {
	t.Helper()

	steam := testutil.NewSteamServer(t)
	cfg := steam.Config(t.TempDir())
	return New(client.New(cfg, nil), cfg), steam
}

func appIDs(games []domain.Game) []int64 {
	return lo.Map(games, func(game domain.Game, _ int) int64 { return game.AppID })
}

func TestSearch_DropsHitsWithoutDetails(t *testing.T) {
	svc, _ := newService(t)

	games := svc.Search(context.Background(), "  Portal ")
	require.Len(t, games, 1)
	assert.Equal(t, int64(620), games[0].AppID)
	assert.Equal(t, []string{"Action", "Adventure"}, games[0].Genres)
	require.NotNil(t, games[0].Price)
	assert.Equal(t, "9.99", games[0].Price.Amount.StringFixed(2))
}

func TestSearch_EmptyTerm(t *testing.T) {
	svc, steam := newService(t)

	assert.Empty(t, svc.Search(context.Background(), "   "))
	assert.Zero(t, steam.Requests("/api/storesearch/"))
}

func TestSearch_UpstreamDown(t *testing.T) {
	svc, steam := newService(t)
	steam.Fail("/api/storesearch/", http.StatusBadGateway)

	games := svc.Search(context.Background(), "portal")
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestSearch_RespectsLimit(t *testing.T) {
	steam := testutil.NewSteamServer(t)
	cfg := steam.Config(t.TempDir())
	cfg.SearchLimit = 1
	svc := New(client.New(cfg, nil), cfg)

	games := svc.Search(context.Background(), "o")
	require.Len(t, games, 1)
	assert.Equal(t, 1, steam.Requests("/api/appdetails"))
}

func TestMostPlayed(t *testing.T) {
	svc, _ := newService(t)

	games := svc.MostPlayed(context.Background())
	assert.Equal(t, []int64{730, 570, 620}, appIDs(games))
	assert.Equal(t, 1, games[0].Rank)
	assert.Equal(t, "Counter-Strike 2", games[0].Name)
	assert.True(t, games[0].IsFree)
}

func TestMostPlayed_FallsBackWithoutDetails(t *testing.T) {
	svc, steam := newService(t)
	steam.Fail("/api/appdetails", http.StatusInternalServerError)

	games := svc.MostPlayed(context.Background())
	require.Len(t, games, 3)
	assert.Equal(t, domain.HeaderImageURL(730), games[0].HeaderImage)
	assert.Equal(t, 3, games[2].Rank)
}

func TestTopByPlayers(t *testing.T) {
	svc, _ := newService(t)

	games := svc.TopByPlayers(context.Background())
	require.Len(t, games, 5)
	assert.Equal(t, []int64{730, 570, 620}, appIDs(games[:3]))
	assert.Equal(t, int64(900000), games[0].PlayerCount)
	assert.Equal(t, 1, games[0].Rank)
	// 440 reports a failed count and ranks as 0
	assert.Contains(t, appIDs(games[3:]), int64(440))
	assert.Zero(t, games[4].PlayerCount)
}

func TestTopByPlayers_Limit(t *testing.T) {
	steam := testutil.NewSteamServer(t)
	cfg := steam.Config(t.TempDir())
	cfg.RankingLimit = 2
	svc := New(client.New(cfg, nil), cfg)

	assert.Equal(t, []int64{730, 570}, appIDs(svc.TopByPlayers(context.Background())))
}

func TestGameDetails(t *testing.T) {
	svc, _ := newService(t)

	page, ok := svc.GameDetails(context.Background(), 620)
	require.True(t, ok)
	assert.Equal(t, "Think with <portals>", page.Description)
	assert.Equal(t, "18 Apr, 2011", page.ReleaseDate)
	require.NotNil(t, page.ConcurrentPlayers)
	assert.Equal(t, int64(3000), *page.ConcurrentPlayers)

	entry := svc.FavoriteEntry(page)
	assert.Equal(t, int64(620), entry.ID)
	assert.Equal(t, "Portal 2", entry.Name)
	assert.Equal(t, page.HeaderImage, entry.ImageURL)
}

func TestGameDetails_WithoutPlayerCount(t *testing.T) {
	svc, _ := newService(t)

	page, ok := svc.GameDetails(context.Background(), 440)
	require.True(t, ok)
	assert.Nil(t, page.ConcurrentPlayers)
	assert.Equal(t, "Nine classes.", page.Description)
}

func TestGameDetails_Missing(t *testing.T) {
	svc, _ := newService(t)

	for _, id := range []int64{0, -5, 999, 31337} {
		page, ok := svc.GameDetails(context.Background(), id)
		assert.False(t, ok, "app %d", id)
		assert.Nil(t, page)
	}
}

// countingCatalog records the peak number of concurrent detail lookups
type countingCatalog struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int32
}

func (c *countingCatalog) Search(context.Context, string) ([]domain.SearchItem, error) {
	return lo.Times(20, func(i int) domain.SearchItem {
		return domain.SearchItem{ID: int64(i + 1), Name: "game"}
	}), nil
}

func (c *countingCatalog) AppDetails(_ context.Context, appID int64) (*domain.AppDetails, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.inFlight++
	c.peak = max(c.peak, c.inFlight)
	c.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()

	if appID%2 == 0 {
		return nil, apperrors.ErrNoData
	}
	return &domain.AppDetails{AppID: appID, Name: "game"}, nil
}

func (c *countingCatalog) CurrentPlayers(context.Context, int64) (int64, error) {
	return 0, apperrors.ErrNoData
}

func (c *countingCatalog) MostPlayed(context.Context) ([]domain.MostPlayedRank, error) {
	return nil, apperrors.ErrNoData
}

func (c *countingCatalog) AppList(context.Context) ([]domain.AppListEntry, error) {
	return nil, apperrors.ErrNoData
}

func TestSearch_BoundedParallelismKeepsOrder(t *testing.T) {
	catalog := &countingCatalog{}
	svc := New(catalog, &config.Config{MaxParallel: 3, SearchLimit: 20})

	games := svc.Search(context.Background(), "game")
	assert.Equal(t, int32(20), catalog.calls.Load())
	assert.LessOrEqual(t, catalog.peak, 3)
	assert.Equal(t, []int64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, appIDs(games))
}

func TestRankings_EmptyOnFailure(t *testing.T) {
	svc := New(&countingCatalog{}, &config.Config{MaxParallel: 1, RankingLimit: 10, RankingPool: 10})

	assert.Empty(t, svc.MostPlayed(context.Background()))
	assert.Empty(t, svc.TopByPlayers(context.Background()))
}
