package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	catalogDomain "github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	feedDomain "github.com/reshetovitsme/steam-browser/internal/modules/feed/domain"
	feedService "github.com/reshetovitsme/steam-browser/internal/modules/feed/service"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

const maxToggleBody = 64 << 10

// Server exposes the catalog, the favorites and the favorites feeds over HTTP
type Server struct {
	cfg             *config.Config
	catalogService  *catalogService.Service
	favoriteService *favoriteService.Service
	feedService     *feedService.Service
	logger          *slog.Logger

	mu     sync.Mutex
	server *http.Server
}

// New creates a new HTTP server
func New(
	cfg *config.Config,
	catalogService *catalogService.Service,
	favoriteService *favoriteService.Service,
	feedService *feedService.Service,
) *Server {
	return &Server{
		cfg:             cfg,
		catalogService:  catalogService,
		favoriteService: favoriteService,
		feedService:     feedService,
		logger:          slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the routed handler wrapped in logging and recovery middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Catalog
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/most-played", s.handleMostPlayed)
	mux.HandleFunc("GET /api/top", s.handleTop)
	mux.HandleFunc("GET /api/games/{appID}", s.handleGame)

	// Favorites
	mux.HandleFunc("GET /api/favorites", s.handleFavorites)
	mux.HandleFunc("GET /api/favorites/{appID}", s.handleIsFavorite)
	mux.HandleFunc("POST /api/favorites/{appID}/toggle", s.handleToggle)

	// Feeds
	for _, name := range feedDomain.FormatNames() {
		format := feedDomain.Format(name)
		mux.HandleFunc("GET "+format.Path(), s.handleFeed(format))
	}

	mux.HandleFunc("GET /{$}", s.handleRoot)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	return handler
}

// Start listens on the configured port until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*s.cfg.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	s.logger.Info("HTTP server starting", "addr", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

type gameView struct {
	catalogDomain.Game
	Favorite bool `json:"favorite"`
}

type gameDetailsView struct {
	*catalogDomain.GameDetails
	Favorite bool `json:"favorite"`
}

type toggleRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	games := s.catalogService.Search(r.Context(), term)

	writeJSON(w, http.StatusOK, map[string]any{
		"term":  term,
		"games": s.withFavorites(r.Context(), games),
	})
}

func (s *Server) handleMostPlayed(w http.ResponseWriter, r *http.Request) {
	games := s.catalogService.MostPlayed(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"games": s.withFavorites(r.Context(), games)})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	games := s.catalogService.TopByPlayers(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"games": s.withFavorites(r.Context(), games)})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseAppID(w, r)
	if !ok {
		return
	}

	page, found := s.catalogService.GameDetails(r.Context(), appID)
	if !found {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	writeJSON(w, http.StatusOK, gameDetailsView{
		GameDetails: page,
		Favorite:    s.favoriteService.IsFavorite(r.Context(), appID),
	})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.favoriteService.Inspect(r.Context()))
}

func (s *Server) handleIsFavorite(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseAppID(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appid":    appID,
		"favorite": s.favoriteService.IsFavorite(r.Context(), appID),
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseAppID(w, r)
	if !ok {
		return
	}

	var body toggleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxToggleBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry := favoriteDomain.Entry{ID: appID, Name: strings.TrimSpace(body.Name), ImageURL: body.ImageURL}
	// Removal only needs the id, so skip the store lookup for a current favorite
	if entry.Name == "" && !s.favoriteService.IsFavorite(r.Context(), appID) {
		page, found := s.catalogService.GameDetails(r.Context(), appID)
		if !found {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		entry = s.catalogService.FavoriteEntry(page)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appid":    appID,
		"favorite": s.favoriteService.ToggleFavorite(r.Context(), entry),
	})
}

func (s *Server) handleFeed(format feedDomain.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get base URL from request
		baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

		out, err := s.feedService.Render(r.Context(), baseURL, format)
		if err != nil {
			s.logger.Error("Error rendering favorites feed", "format", format, "error", err)
			http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Steam Browser</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Steam Browser</h1>
    <div class="info">
        <p>Search: <code>/api/search?term=portal</code></p>
        <p>Rankings: <code>/api/most-played</code>, <code>/api/top</code></p>
        <p>Details: <code>/api/games/{appID}</code></p>
        <p>Favorites: <code>/api/favorites</code>, <code>POST /api/favorites/{appID}/toggle</code></p>
        <p>Feeds: <a href="/rss/favorites">RSS</a>, <a href="/atom/favorites">Atom</a>, <a href="/json/favorites">JSON</a></p>
    </div>
    <p><a href="/health">Health Check</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) withFavorites(ctx context.Context, games []catalogDomain.Game) []gameView {
	favorites := s.favoriteService.LoadAll(ctx)

	views := make([]gameView, 0, len(games))
	for _, game := range games {
		views = append(views, gameView{Game: game, Favorite: favorites.Contains(game.AppID)})
	}
	return views
}

func parseAppID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	appID, err := strconv.ParseInt(r.PathValue("appID"), 10, 64)
	if err != nil || appID <= 0 {
		writeError(w, http.StatusBadRequest, "appID must be a positive integer")
		return 0, false
	}
	return appID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
