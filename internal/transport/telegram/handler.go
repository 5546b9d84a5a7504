package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	catalogDomain "github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
)

// maxDescription keeps detail replies well under the 4096 character message limit
const maxDescription = 1500

const helpText = `👋 Welcome to Steam Browser Bot!

Available commands:
/help - Show this help message
/search <term> - Search the store
/popular - Most played games right now
/top - Catalog ranked by current players
/game <appID> - Game details
/fav <appID> - Add or remove a favorite
/favorites - List your favorites
/status - Show bot status

Example:
/search portal`

// Handler handles Telegram bot interactions
type Handler struct {
	cfg             *config.Config
	catalogService  *catalogService.Service
	favoriteService *favoriteService.Service
}

// New creates a new Telegram handler
func New(cfg *config.Config, catalogService *catalogService.Service, favoriteService *favoriteService.Service) *Handler {
	return &Handler{
		cfg:             cfg,
		catalogService:  catalogService,
		favoriteService: favoriteService,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/search", bot.MatchTypePrefix, h.handleSearch)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/popular", bot.MatchTypeExact, h.handlePopular)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/top", bot.MatchTypeExact, h.handleTop)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/game", bot.MatchTypePrefix, h.handleGame)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/favorites", bot.MatchTypeExact, h.handleFavorites)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/fav", bot.MatchTypePrefix, h.handleToggle)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
}

// HandleUpdate answers messages no command matched
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	h.reply(ctx, b, update, "🤔 Unknown command. Send /help for the list of commands.")
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reply(ctx, b, update, helpText)
}

func (h *Handler) handleSearch(ctx context.Context, b *bot.Bot, update *models.Update) {
	term := commandArgs(update.Message.Text)
	if term == "" {
		h.reply(ctx, b, update, "Usage: /search <term>\nExample: /search portal")
		return
	}

	games := h.catalogService.Search(ctx, term)
	if len(games) == 0 {
		h.reply(ctx, b, update, fmt.Sprintf("🔍 No games found for %q", term))
		return
	}

	h.reply(ctx, b, update, formatGameList(fmt.Sprintf("🔍 Results for %q", term), games, h.favoriteService.LoadAll(ctx)))
}

func (h *Handler) handlePopular(ctx context.Context, b *bot.Bot, update *models.Update) {
	games := h.catalogService.MostPlayed(ctx)
	if len(games) == 0 {
		h.reply(ctx, b, update, "❌ The most played chart is unavailable right now.")
		return
	}

	h.reply(ctx, b, update, formatGameList("🔥 Most played", games, h.favoriteService.LoadAll(ctx)))
}

func (h *Handler) handleTop(ctx context.Context, b *bot.Bot, update *models.Update) {
	games := h.catalogService.TopByPlayers(ctx)
	if len(games) == 0 {
		h.reply(ctx, b, update, "❌ Player rankings are unavailable right now.")
		return
	}

	h.reply(ctx, b, update, formatGameList("🏆 Top by current players", games, h.favoriteService.LoadAll(ctx)))
}

func (h *Handler) handleGame(ctx context.Context, b *bot.Bot, update *models.Update) {
	appID, err := parseAppID(commandArgs(update.Message.Text))
	if err != nil {
		h.reply(ctx, b, update, "Usage: /game <appID>\nExample: /game 620")
		return
	}

	page, ok := h.catalogService.GameDetails(ctx, appID)
	if !ok {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Game %d not found", appID))
		return
	}

	h.reply(ctx, b, update, formatGameDetails(page, h.favoriteService.IsFavorite(ctx, appID)))
}

func (h *Handler) handleToggle(ctx context.Context, b *bot.Bot, update *models.Update) {
	// "/fav" is a prefix of "/favorites" and handler lookup order is not fixed
	if commandName(update.Message.Text) == "/favorites" {
		h.handleFavorites(ctx, b, update)
		return
	}

	appID, err := parseAppID(commandArgs(update.Message.Text))
	if err != nil {
		h.reply(ctx, b, update, "Usage: /fav <appID>\nExample: /fav 620")
		return
	}

	// Removal only needs the id, so it works while the store is unreachable
	if stored, ok := h.favoriteService.LoadAll(ctx).Find(appID); ok {
		h.replyMembership(ctx, b, update, stored, h.favoriteService.ToggleFavorite(ctx, stored))
		return
	}

	page, ok := h.catalogService.GameDetails(ctx, appID)
	if !ok {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Game %d not found", appID))
		return
	}

	entry := h.catalogService.FavoriteEntry(page)
	h.replyMembership(ctx, b, update, entry, h.favoriteService.ToggleFavorite(ctx, entry))
}

func (h *Handler) replyMembership(ctx context.Context, b *bot.Bot, update *models.Update, entry favoriteDomain.Entry, favorite bool) {
	name := entry.Name
	if name == "" {
		name = fmt.Sprintf("Game %d", entry.ID)
	}

	if favorite {
		h.reply(ctx, b, update, fmt.Sprintf("⭐ %s added to favorites", name))
		return
	}
	h.reply(ctx, b, update, fmt.Sprintf("☆ %s is not in favorites", name))
}

func (h *Handler) handleFavorites(ctx context.Context, b *bot.Bot, update *models.Update) {
	favorites := h.favoriteService.LoadAll(ctx)
	if len(favorites) == 0 {
		h.reply(ctx, b, update, "📭 No favorites yet.\nUse /fav <appID> to add one.")
		return
	}

	text := formatFavorites(favorites)
	text += fmt.Sprintf("\n🔗 RSS: http://localhost:%s/rss/favorites", h.cfg.HTTPPort)

	h.reply(ctx, b, update, text)
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	result := h.favoriteService.Inspect(ctx)

	text := fmt.Sprintf(`📊 Bot Status:

Favorites: %d (dropped as invalid: %d)
Storage: %s (%s)
HTTP Port: %s
Country: %s
Environment: %s`,
		len(result.Entries), result.Dropped, h.cfg.StorageDriver, h.cfg.StoragePath,
		h.cfg.HTTPPort, h.cfg.CountryCode, h.cfg.AppEnv)

	h.reply(ctx, b, update, text)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	if update.Message == nil {
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

// Helper functions
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}

func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}

func parseAppID(arg string) (int64, error) {
	appID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || appID <= 0 {
		return 0, apperrors.ErrInvalidAppID
	}
	return appID, nil
}

func formatGameList(title string, games []catalogDomain.Game, favorites favoriteDomain.Collection) string {
	var text strings.Builder
	text.WriteString(title + ":\n\n")

	for i, game := range games {
		marker := "  "
		if favorites.Contains(game.AppID) {
			marker = "⭐"
		}

		rank := i + 1
		if game.Rank > 0 {
			rank = game.Rank
		}

		fmt.Fprintf(&text, "%s %d. %s (%d)", marker, rank, game.Name, game.AppID)
		if price := formatPrice(game); price != "" {
			fmt.Fprintf(&text, " - %s", price)
		}
		if game.PlayerCount > 0 {
			fmt.Fprintf(&text, " - %s players", formatCount(game.PlayerCount))
		}
		text.WriteString("\n")
	}

	text.WriteString("\nUse /game <appID> for details.")
	return text.String()
}

func formatGameDetails(page *catalogDomain.GameDetails, favorite bool) string {
	var text strings.Builder

	star := "☆"
	if favorite {
		star = "⭐"
	}
	fmt.Fprintf(&text, "%s %s\n\n", star, page.Name)

	if price := formatPrice(page.Game); price != "" {
		fmt.Fprintf(&text, "Price: %s\n", price)
	}
	if len(page.Genres) > 0 {
		fmt.Fprintf(&text, "Genres: %s\n", strings.Join(page.Genres, ", "))
	}
	if len(page.Developers) > 0 {
		fmt.Fprintf(&text, "Developers: %s\n", strings.Join(page.Developers, ", "))
	}
	if page.ReleaseDate != "" {
		fmt.Fprintf(&text, "Released: %s\n", page.ReleaseDate)
	}
	if page.ConcurrentPlayers != nil {
		fmt.Fprintf(&text, "Playing now: %s\n", formatCount(*page.ConcurrentPlayers))
	}

	if page.Description != "" {
		fmt.Fprintf(&text, "\n%s\n", truncate(page.Description, maxDescription))
	}

	fmt.Fprintf(&text, "\n%s", catalogDomain.StoreURL(page.AppID))
	return text.String()
}

func formatFavorites(favorites favoriteDomain.Collection) string {
	var text strings.Builder
	text.WriteString("⭐ Favorites:\n\n")
	for i, entry := range favorites {
		fmt.Fprintf(&text, "%d. %s (%d)\n", i+1, entry.Name, entry.ID)
	}
	return text.String()
}

func formatPrice(game catalogDomain.Game) string {
	switch {
	case game.IsFree:
		return "Free"
	case game.Price == nil:
		return ""
	case game.Price.Formatted != "":
		return game.Price.Formatted
	default:
		return game.Price.Amount.StringFixed(2) + " " + game.Price.Currency
	}
}

// formatCount groups thousands, e.g. 1234567 -> 1,234,567
func formatCount(n int64) string {
	digits := strconv.FormatInt(n, 10)

	var out strings.Builder
	if n < 0 {
		out.WriteByte('-')
		digits = digits[1:]
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(d)
	}
	return out.String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
