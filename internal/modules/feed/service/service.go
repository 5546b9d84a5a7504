package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/gorilla/feeds"
	catalogDomain "github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	"github.com/reshetovitsme/steam-browser/internal/modules/feed/domain"
	"github.com/samber/oops"
)

// Favorites is the read side of the favorites service
type Favorites interface {
	LoadAll(ctx context.Context) favoriteDomain.Collection
}

// Service handles favorites feed generation
type Service struct {
	favorites Favorites
	now       func() time.Time
}

// New creates a new feed service
func New(favorites Favorites) *Service {
	return &Service{
		favorites: favorites,
		now:       time.Now,
	}
}

// GenerateFavoritesFeed builds a feed with one item per favorite, in
// collection order
func (s *Service) GenerateFavoritesFeed(ctx context.Context, baseURL string) *feeds.Feed {
	favorites := s.favorites.LoadAll(ctx)
	now := s.now()

	feed := &feeds.Feed{
		Title:       "Steam favorites",
		Link:        &feeds.Link{Href: baseURL + "/api/favorites"},
		Description: fmt.Sprintf("%d favorited games", len(favorites)),
		Created:     now,
		Updated:     now,
	}

	items := make([]*feeds.Item, 0, len(favorites))
	for _, entry := range favorites {
		items = append(items, s.entryToFeedItem(entry, now))
	}

	feed.Items = items
	return feed
}

// Render serializes the favorites feed in format
func (s *Service) Render(ctx context.Context, baseURL string, format domain.Format) (string, error) {
	feed := s.GenerateFavoritesFeed(ctx, baseURL)

	var (
		out string
		err error
	)

	switch format {
	case domain.FormatRss:
		out, err = feed.ToRss()
	case domain.FormatAtom:
		out, err = feed.ToAtom()
	case domain.FormatJson:
		out, err = feed.ToJSON()
	default:
		return "", oops.With("format", format).Wrap(domain.ErrInvalidFormat)
	}

	if err != nil {
		return "", oops.With("format", format, "context", "failed to render feed").Wrap(err)
	}

	return out, nil
}

func (s *Service) entryToFeedItem(entry favoriteDomain.Entry, created time.Time) *feeds.Item {
	title := entry.Name
	if title == "" {
		title = fmt.Sprintf("App %d", entry.ID)
	}

	link := catalogDomain.StoreURL(entry.ID)

	content := fmt.Sprintf("<p>%s</p>", html.EscapeString(title))
	if entry.ImageURL != "" {
		content += fmt.Sprintf(`<p><img src="%s" alt="%s"/></p>`, html.EscapeString(entry.ImageURL), html.EscapeString(title))
	}

	return &feeds.Item{
		Title:       truncate(title, 100),
		Link:        &feeds.Link{Href: link},
		Description: title,
		Content:     content,
		Created:     created,
		Id:          link,
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
