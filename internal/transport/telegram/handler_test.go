package telegram

import (
	"context"
	"encoding/json"
	"math"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/client"
	catalogDomain "github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	"github.com/reshetovitsme/steam-browser/internal/modules/favorite/repository"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/reshetovitsme/steam-browser/internal/shared/kv"
	"github.com/reshetovitsme/steam-browser/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// telegramAPI records the texts the bot sends
type telegramAPI struct {
	mu   sync.Mutex
	sent []string
}

func (api *telegramAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if strings.HasSuffix(r.URL.Path, "/getMe") {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"test","username":"test_bot"}}`))
		return
	}

	text := ""
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		text = body.Text
	} else if err := r.ParseMultipartForm(1 << 20); err == nil {
		text = r.FormValue("text")
	}

	api.mu.Lock()
	api.sent = append(api.sent, text)
	api.mu.Unlock()

	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
}

func (api *telegramAPI) last(t *testing.T) string {
	t.Helper()

	api.mu.Lock()
	defer api.mu.Unlock()
	require.NotEmpty(t, api.sent)
	return api.sent[len(api.sent)-1]
}

type testEnv struct {
	handler *Handler
	bot     *bot.Bot
	api     *telegramAPI
	steam   *testutil.SteamServer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	steam := testutil.NewSteamServer(t)
	cfg := steam.Config(t.TempDir())

	store, err := kv.Open(cfg.StorageDriver, cfg.StoragePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	api := &telegramAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	b, err := bot.New("test-token", bot.WithServerURL(server.URL))
	require.NoError(t, err)

	handler := New(cfg, catalogService.New(client.New(cfg, nil), cfg), favoriteService.New(repository.NewKVStorage(store)))

	return &testEnv{handler: handler, bot: b, api: api, steam: steam}
}

func message(text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Text: text,
			Chat: models.Chat{ID: 42, Type: "private"},
		},
	}
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.handler.handleSearch(ctx, env.bot, message("/search portal"))
	reply := env.api.last(t)
	assert.Contains(t, reply, "Portal 2 (620)")
	assert.Contains(t, reply, "$9.99")

	env.handler.handleSearch(ctx, env.bot, message("/search"))
	assert.Contains(t, env.api.last(t), "Usage: /search")
}

func TestGameAndFavoriteCommands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.handler.handleGame(ctx, env.bot, message("/game 620"))
	reply := env.api.last(t)
	assert.Contains(t, reply, "☆ Portal 2")
	assert.Contains(t, reply, "Think with <portals>")
	assert.Contains(t, reply, "Playing now: 3,000")

	env.handler.handleToggle(ctx, env.bot, message("/fav 620"))
	assert.Contains(t, env.api.last(t), "added to favorites")

	env.handler.handleGame(ctx, env.bot, message("/game 620"))
	assert.Contains(t, env.api.last(t), "⭐ Portal 2")

	env.handler.handleToggle(ctx, env.bot, message("/favorites"))
	assert.Contains(t, env.api.last(t), "1. Portal 2 (620)")

	env.handler.handleToggle(ctx, env.bot, message("/fav 620"))
	assert.Contains(t, env.api.last(t), "is not in favorites")

	env.handler.handleFavorites(ctx, env.bot, message("/favorites"))
	assert.Contains(t, env.api.last(t), "No favorites yet")

	env.handler.handleGame(ctx, env.bot, message("/game 999"))
	assert.Contains(t, env.api.last(t), "Game 999 not found")

	env.handler.handleToggle(ctx, env.bot, message("/fav abc"))
	assert.Contains(t, env.api.last(t), "Usage: /fav")
}

func TestUnfavoriteWhileStoreIsDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.handler.handleToggle(ctx, env.bot, message("/fav 620"))
	require.Contains(t, env.api.last(t), "Portal 2 added to favorites")

	env.steam.Fail("/api/appdetails", http.StatusInternalServerError)

	env.handler.handleToggle(ctx, env.bot, message("/fav 620"))
	assert.Contains(t, env.api.last(t), "Portal 2 is not in favorites")

	env.handler.handleToggle(ctx, env.bot, message("/fav 620"))
	assert.Contains(t, env.api.last(t), "Game 620 not found")
}

func TestRankingCommands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.handler.handlePopular(ctx, env.bot, message("/popular"))
	assert.Contains(t, env.api.last(t), "1. Counter-Strike 2 (730)")

	env.handler.handleTop(ctx, env.bot, message("/top"))
	assert.Contains(t, env.api.last(t), "900,000 players")

	env.handler.handleStatus(ctx, env.bot, message("/status"))
	assert.Contains(t, env.api.last(t), "Favorites: 0")

	env.handler.HandleUpdate(ctx, env.bot, message("hello"))
	assert.Contains(t, env.api.last(t), "Unknown command")
}

func TestCommandParsing(t *testing.T) {
	assert.Equal(t, "portal 2", commandArgs("/search   portal 2 "))
	assert.Equal(t, "", commandArgs("/search"))
	assert.Equal(t, "/fav", commandName("/fav@test_bot 620"))
	assert.Equal(t, "/favorites", commandName(" /favorites"))

	id, err := parseAppID("620")
	require.NoError(t, err)
	assert.Equal(t, int64(620), id)

	for _, arg := range []string{"", "0", "-1", "x"} {
		_, err := parseAppID(arg)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAppID, arg)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "1,234,567", formatCount(1234567))
	assert.Equal(t, "-12,345", formatCount(-12345))
	assert.Equal(t, "-999", formatCount(-999))
	assert.Equal(t, "-9,223,372,036,854,775,808", formatCount(math.MinInt64))
	assert.Equal(t, "9,223,372,036,854,775,807", formatCount(math.MaxInt64))

	assert.Equal(t, "Free", formatPrice(catalogDomain.Game{IsFree: true}))
	assert.Equal(t, "", formatPrice(catalogDomain.Game{}))
	assert.Equal(t, "19.99 EUR", formatPrice(catalogDomain.Game{
		Price: &catalogDomain.Price{Currency: "EUR", Amount: decimal.New(1999, -2)},
	}))

	list := formatGameList("Top", []catalogDomain.Game{
		{AppID: 620, Name: "Portal 2", Rank: 3},
		{AppID: 70, Name: "Half-Life"},
	}, favoriteDomain.Collection{{ID: 620, Name: "Portal 2"}})
	assert.Contains(t, list, "⭐ 3. Portal 2 (620)")
	assert.Contains(t, list, "   2. Half-Life (70)")

	assert.Equal(t, "ab...", truncate("abc", 2))
}
