package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HeaderImageURL is the CDN location of an app's header image
func HeaderImageURL(appID int64) string {
	return fmt.Sprintf("https://cdn.akamai.steamstatic.com/steam/apps/%d/header.jpg", appID)
}

// StoreURL is the public store page of an app
func StoreURL(appID int64) string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d/", appID)
}

// SearchItem is one hit from the storefront search
type SearchItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	TinyImage string `json:"tiny_image"`
}

// AppDetails is the subset of the storefront app details this client reads
type AppDetails struct {
	AppID               int64          `json:"steam_appid"`
	Type                string         `json:"type"`
	Name                string         `json:"name"`
	IsFree              bool           `json:"is_free"`
	HeaderImage         string         `json:"header_image"`
	ShortDescription    string         `json:"short_description"`
	DetailedDescription string         `json:"detailed_description"`
	Developers          []string       `json:"developers"`
	Publishers          []string       `json:"publishers"`
	ReleaseDate         ReleaseDate    `json:"release_date"`
	PriceOverview       *PriceOverview `json:"price_overview"`
	Genres              []Genre        `json:"genres"`
}

type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// PriceOverview carries prices in minor currency units
type PriceOverview struct {
	Currency        string `json:"currency"`
	Initial         int64  `json:"initial"`
	Final           int64  `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
	FinalFormatted  string `json:"final_formatted"`
}

// Amount converts Final to major units, e.g. 999 -> 9.99
func (p PriceOverview) Amount() decimal.Decimal {
	return decimal.New(p.Final, -2)
}

// MostPlayedRank is one row of the most-played chart
type MostPlayedRank struct {
	Rank         int   `json:"rank"`
	AppID        int64 `json:"appid"`
	LastWeekRank int   `json:"last_week_rank"`
	PeakInGame   int64 `json:"peak_in_game"`
}

// AppListEntry is one app of the full catalog listing
type AppListEntry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

// Price is a display-ready price
type Price struct {
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	DiscountPercent int             `json:"discount_percent,omitempty"`
	Formatted       string          `json:"formatted"`
}

// Game is one row of a search result or ranking
type Game struct {
	AppID       int64    `json:"appid"`
	Name        string   `json:"name"`
	HeaderImage string   `json:"header_image"`
	IsFree      bool     `json:"is_free,omitempty"`
	Price       *Price   `json:"price,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	PlayerCount int64    `json:"player_count,omitempty"`
	Rank        int      `json:"rank,omitempty"`
}

// GameDetails is a game's detail page
type GameDetails struct {
	Game
	Description       string   `json:"description"`
	ShortDescription  string   `json:"short_description,omitempty"`
	Developers        []string `json:"developers"`
	Publishers        []string `json:"publishers"`
	ReleaseDate       string   `json:"release_date"`
	ComingSoon        bool     `json:"coming_soon,omitempty"`
	ConcurrentPlayers *int64   `json:"concurrent_players,omitempty"`
}
