// Package testutil holds fakes shared by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/reshetovitsme/steam-browser/internal/shared/config"
)

// SteamApp is a fixture app served by SteamServer
type SteamApp struct {
	ID          int64
	Name        string
	Description string
	Developer   string
	// Players < 0 makes the player count endpoint answer with a failed result
	Players int64
	// PriceCents == 0 means free to play
	PriceCents int64
	Genres     []string
	// Broken apps are listed and searchable but their details report success=false
	Broken bool
}

// DefaultApps is the fixture catalog, in app list order
var DefaultApps = []SteamApp{
	{ID: 440, Name: "Team Fortress 2", Description: "<p>Nine&nbsp;classes.</p>", Developer: "Valve", Players: -1, Genres: []string{"Action"}},
	{ID: 570, Name: "Dota 2", Description: "<h1>Every day</h1>\n<p>millions of players</p>", Developer: "Valve", Players: 600000, Genres: []string{"Strategy"}},
	{ID: 620, Name: "Portal 2", Description: "<p>Think&nbsp;with &lt;portals&gt;</p>", Developer: "Valve", Players: 3000, PriceCents: 999, Genres: []string{"Action", "Adventure"}},
	{ID: 730, Name: "Counter-Strike 2", Description: "<b>Tactical</b>\tshooter", Developer: "Valve", Players: 900000, Genres: []string{"Action"}},
	{ID: 999, Name: "Portal Broken Edition", Broken: true},
}

// MostPlayedOrder is the fixture chart
var MostPlayedOrder = []int64{730, 570, 620}

// SteamServer fakes the storefront and Web API endpoints used by the catalog client
type SteamServer struct {
	*httptest.Server

	mu       sync.Mutex
	apps     []SteamApp
	failing  map[string]int
	requests map[string]int
}

// NewSteamServer starts a fake serving DefaultApps; it is closed with the test
func NewSteamServer(t testing.TB) *SteamServer {
	t.Helper()

	s := &SteamServer{
		apps:     DefaultApps,
		failing:  map[string]int{},
		requests: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/storesearch/", s.handleSearch)
	mux.HandleFunc("GET /api/appdetails", s.handleAppDetails)
	mux.HandleFunc("GET /ISteamUserStats/GetNumberOfCurrentPlayers/v1/", s.handlePlayers)
	mux.HandleFunc("GET /ISteamChartsService/GetMostPlayedGames/v1/", s.handleMostPlayed)
	mux.HandleFunc("GET /ISteamApps/GetAppList/v2/", s.handleAppList)

	s.Server = httptest.NewServer(s.wrap(mux))
	t.Cleanup(s.Close)

	return s
}

// Fail makes every request to path answer with status
func (s *SteamServer) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[path] = status
}

// Requests counts requests received for path
func (s *SteamServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Config returns a config pointing both API base URLs at the fake
func (s *SteamServer) Config(storagePath string) *config.Config {
	return &config.Config{
		StorageDriver:     config.StorageDriverFile,
		StoragePath:       storagePath,
		HTTPPort:          "0",
		StoreAPIURL:       s.URL,
		WebAPIURL:         s.URL,
		CountryCode:       "US",
		Language:          "english",
		RequestTimeout:    5,
		RequestsPerSecond: 1000,
		MaxParallel:       4,
		SearchLimit:       10,
		RankingPool:       100,
		RankingLimit:      10,
		AppEnv:            config.AppEnvTesting,
		LogLevel:          "error",
	}
}

func (s *SteamServer) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		status, failing := s.failing[r.URL.Path]
		s.mu.Unlock()

		if failing {
			http.Error(w, "upstream failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *SteamServer) app(id int64) (SteamApp, bool) {
	for _, app := range s.apps {
		if app.ID == id {
			return app, true
		}
	}
	return SteamApp{}, false
}

func (s *SteamServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.URL.Query().Get("term"))

	items := []map[string]any{}
	for _, app := range s.apps {
		if term != "" && strings.Contains(strings.ToLower(app.Name), term) {
			items = append(items, map[string]any{
				"type":       "app",
				"name":       app.Name,
				"id":         app.ID,
				"tiny_image": "https://cdn/tiny/" + strconv.FormatInt(app.ID, 10) + ".jpg",
			})
		}
	}

	writeJSON(w, map[string]any{"total": len(items), "items": items})
}

func (s *SteamServer) handleAppDetails(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("appids")
	id, _ := strconv.ParseInt(rawID, 10, 64)

	app, ok := s.app(id)
	if !ok || app.Broken {
		writeJSON(w, map[string]any{rawID: map[string]any{"success": false}})
		return
	}

	genres := make([]map[string]any, 0, len(app.Genres))
	for i, genre := range app.Genres {
		genres = append(genres, map[string]any{"id": strconv.Itoa(i + 1), "description": genre})
	}

	data := map[string]any{
		"type":                 "game",
		"name":                 app.Name,
		"steam_appid":          app.ID,
		"is_free":              app.PriceCents == 0,
		"header_image":         "https://cdn/apps/" + rawID + "/header.jpg",
		"short_description":    app.Name + " short",
		"detailed_description": app.Description,
		"developers":           []string{app.Developer},
		"publishers":           []string{app.Developer},
		"release_date":         map[string]any{"coming_soon": false, "date": "18 Apr, 2011"},
		"genres":               genres,
	}
	if app.PriceCents > 0 {
		data["price_overview"] = map[string]any{
			"currency":         "USD",
			"initial":          app.PriceCents,
			"final":            app.PriceCents,
			"discount_percent": 0,
			"final_formatted":  "$" + strconv.FormatFloat(float64(app.PriceCents)/100, 'f', 2, 64),
		}
	}

	writeJSON(w, map[string]any{rawID: map[string]any{"success": true, "data": data}})
}

func (s *SteamServer) handlePlayers(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("appid"), 10, 64)

	app, ok := s.app(id)
	if !ok || app.Players < 0 {
		writeJSON(w, map[string]any{"response": map[string]any{"result": 42}})
		return
	}

	writeJSON(w, map[string]any{"response": map[string]any{"player_count": app.Players, "result": 1}})
}

func (s *SteamServer) handleMostPlayed(w http.ResponseWriter, r *http.Request) {
	ranks := make([]map[string]any, 0, len(MostPlayedOrder))
	for i, id := range MostPlayedOrder {
		ranks = append(ranks, map[string]any{
			"rank":           i + 1,
			"appid":          id,
			"last_week_rank": i + 1,
			"peak_in_game":   1000000 - i,
		})
	}

	writeJSON(w, map[string]any{"response": map[string]any{"rollup_date": 1760659200, "ranks": ranks}})
}

func (s *SteamServer) handleAppList(w http.ResponseWriter, r *http.Request) {
	apps := make([]map[string]any, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, map[string]any{"appid": app.ID, "name": app.Name})
	}

	writeJSON(w, map[string]any{"applist": map[string]any{"apps": apps}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
