package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	"github.com/reshetovitsme/steam-browser/internal/modules/description"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Catalog is the remote catalog the service reads from
type Catalog interface {
	Search(ctx context.Context, term string) ([]domain.SearchItem, error)
	AppDetails(ctx context.Context, appID int64) (*domain.AppDetails, error)
	CurrentPlayers(ctx context.Context, appID int64) (int64, error)
	MostPlayed(ctx context.Context) ([]domain.MostPlayedRank, error)
	AppList(ctx context.Context) ([]domain.AppListEntry, error)
}

// Service assembles search results, rankings and detail pages. Remote
// failures are logged and turned into empty or partial results.
type Service struct {
	catalog      Catalog
	maxParallel  int
	searchLimit  int
	rankingPool  int
	rankingLimit int
}

// New creates a new catalog service
func New(catalog Catalog, cfg *config.Config) *Service {
	return &Service{
		catalog:      catalog,
		maxParallel:  max(1, cfg.MaxParallel),
		searchLimit:  cfg.SearchLimit,
		rankingPool:  cfg.RankingPool,
		rankingLimit: cfg.RankingLimit,
	}
}

// Search returns the games matching term in storefront order. Hits whose
// details cannot be fetched are left out.
func (s *Service) Search(ctx context.Context, term string) []domain.Game {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Game{}
	}

	hits, err := s.catalog.Search(ctx, term)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to search catalog", "term", term, "error", err)
		return []domain.Game{}
	}

	hits = lo.Slice(hits, 0, s.searchLimit)
	games := make([]*domain.Game, len(hits))

	s.fanOut(len(hits), func(i int) {
		details, err := s.catalog.AppDetails(ctx, hits[i].ID)
		if err != nil {
			slog.WarnContext(ctx, "Dropping search hit without details", "app_id", hits[i].ID, "error", err)
			return
		}
		game := gameFromDetails(details)
		games[i] = &game
	})

	return compact(games)
}

// MostPlayed returns the head of the most-played chart. Ranks whose details
// are unavailable keep their position with the CDN header image.
func (s *Service) MostPlayed(ctx context.Context) []domain.Game {
	ranks, err := s.catalog.MostPlayed(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load most played chart", "error", err)
		return []domain.Game{}
	}

	slices.SortStableFunc(ranks, func(a, b domain.MostPlayedRank) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	ranks = lo.Slice(ranks, 0, s.rankingLimit)
	games := make([]domain.Game, len(ranks))

	s.fanOut(len(ranks), func(i int) {
		rank := ranks[i]
		game := domain.Game{
			AppID:       rank.AppID,
			Name:        fmt.Sprintf("App %d", rank.AppID),
			HeaderImage: domain.HeaderImageURL(rank.AppID),
		}

		if details, err := s.catalog.AppDetails(ctx, rank.AppID); err == nil {
			game = gameFromDetails(details)
		} else {
			slog.WarnContext(ctx, "Most played entry without details", "app_id", rank.AppID, "error", err)
		}

		game.Rank = rank.Rank
		game.PlayerCount = rank.PeakInGame
		games[i] = game
	})

	return games
}

// TopByPlayers ranks the first apps of the catalog listing by their current
// player count. A count that cannot be fetched ranks as 0.
func (s *Service) TopByPlayers(ctx context.Context) []domain.Game {
	apps, err := s.catalog.AppList(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load app list", "error", err)
		return []domain.Game{}
	}

	apps = lo.Filter(apps, func(app domain.AppListEntry, _ int) bool {
		return app.AppID > 0 && app.Name != ""
	})
	apps = lo.Slice(apps, 0, s.rankingPool)
	games := make([]domain.Game, len(apps))

	s.fanOut(len(apps), func(i int) {
		app := apps[i]
		players, err := s.catalog.CurrentPlayers(ctx, app.AppID)
		if err != nil {
			slog.DebugContext(ctx, "Player count unavailable", "app_id", app.AppID, "error", err)
			players = 0
		}

		games[i] = domain.Game{
			AppID:       app.AppID,
			Name:        app.Name,
			HeaderImage: domain.HeaderImageURL(app.AppID),
			PlayerCount: players,
		}
	})

	slices.SortStableFunc(games, func(a, b domain.Game) int {
		return cmp.Compare(b.PlayerCount, a.PlayerCount)
	})
	games = lo.Slice(games, 0, s.rankingLimit)
	for i := range games {
		games[i].Rank = i + 1
	}

	return games
}

// GameDetails builds the detail page of appID with a plain-text description.
// The page is still returned when only the player count is missing.
func (s *Service) GameDetails(ctx context.Context, appID int64) (*domain.GameDetails, bool) {
	if appID <= 0 {
		return nil, false
	}

	details, err := s.catalog.AppDetails(ctx, appID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load game details", "app_id", appID, "error", err)
		return nil, false
	}

	page := &domain.GameDetails{
		Game:             gameFromDetails(details),
		Description:      description.Sanitize(details.DetailedDescription),
		ShortDescription: description.Sanitize(details.ShortDescription),
		Developers:       lo.Ternary(details.Developers == nil, []string{}, details.Developers),
		Publishers:       lo.Ternary(details.Publishers == nil, []string{}, details.Publishers),
		ReleaseDate:      details.ReleaseDate.Date,
		ComingSoon:       details.ReleaseDate.ComingSoon,
	}

	players, err := s.catalog.CurrentPlayers(ctx, appID)
	if err != nil {
		slog.WarnContext(ctx, "Player count unavailable", "app_id", appID, "error", err)
	} else {
		page.ConcurrentPlayers = &players
		page.PlayerCount = players
	}

	return page, true
}

// FavoriteEntry is the minimal record stored when a detail page is favorited
func (s *Service) FavoriteEntry(page *domain.GameDetails) favoriteDomain.Entry {
	return favoriteDomain.Entry{
		ID:       page.AppID,
		Name:     page.Name,
		ImageURL: page.HeaderImage,
	}
}

// fanOut runs fn for every index with at most maxParallel in flight
func (s *Service) fanOut(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(s.maxParallel)

	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}

	_ = g.Wait()
}

func gameFromDetails(details *domain.AppDetails) domain.Game {
	game := domain.Game{
		AppID:       details.AppID,
		Name:        details.Name,
		HeaderImage: details.HeaderImage,
		IsFree:      details.IsFree,
		Genres: lo.Map(details.Genres, func(genre domain.Genre, _ int) string {
			return genre.Description
		}),
	}

	if game.HeaderImage == "" {
		game.HeaderImage = domain.HeaderImageURL(details.AppID)
	}

	if price := details.PriceOverview; price != nil && !details.IsFree {
		game.Price = &domain.Price{
			Currency:        price.Currency,
			Amount:          price.Amount(),
			DiscountPercent: price.DiscountPercent,
			Formatted:       price.FinalFormatted,
		}
	}

	return game
}

func compact(games []*domain.Game) []domain.Game {
	return lo.FilterMap(games, func(game *domain.Game, _ int) (domain.Game, bool) {
		if game == nil {
			return domain.Game{}, false
		}
		return *game, true
	})
}
