package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

const (
	userAgent = "steam-browser/1.0"
	// maxBodySize caps decoded responses; the full app list is the largest
	maxBodySize = 64 << 20
)

// Client reads the public Steam storefront and Web API endpoints. Every call
// waits on a shared rate limiter and is bounded by the HTTP client timeout.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	storeURL    string
	webURL      string
	apiKey      string
	countryCode string
	language    string
}

// New creates a catalog client from cfg. A nil httpClient gets one with
// cfg.Timeout().
func New(cfg *config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	burst := max(1, int(cfg.RequestsPerSecond))

	return &Client{
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		storeURL:    cfg.StoreAPIURL,
		webURL:      cfg.WebAPIURL,
		apiKey:      cfg.SteamAPIKey,
		countryCode: cfg.CountryCode,
		language:    cfg.Language,
	}
}

// Search runs a storefront term search
func (c *Client) Search(ctx context.Context, term string) ([]domain.SearchItem, error) {
	var body struct {
		Total int                  `json:"total"`
		Items *[]domain.SearchItem `json:"items"`
	}

	query := url.Values{
		"term": {term},
		"l":    {c.language},
		"cc":   {c.countryCode},
	}
	if err := c.getJSON(ctx, c.storeURL+"/api/storesearch/", query, &body); err != nil {
		return nil, oops.With("term", term).Wrap(err)
	}
	if body.Items == nil {
		return nil, oops.With("term", term, "context", "search response without items").Wrap(apperrors.ErrNoData)
	}

	return lo.Filter(*body.Items, func(item domain.SearchItem, _ int) bool {
		return item.ID > 0
	}), nil
}

// AppDetails fetches the storefront details of one app
func (c *Client) AppDetails(ctx context.Context, appID int64) (*domain.AppDetails, error) {
	if appID <= 0 {
		return nil, oops.With("app_id", appID).Wrap(apperrors.ErrInvalidAppID)
	}

	var body map[string]struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}

	id := strconv.FormatInt(appID, 10)
	query := url.Values{
		"appids": {id},
		"cc":     {c.countryCode},
		"l":      {c.language},
	}
	if err := c.getJSON(ctx, c.storeURL+"/api/appdetails", query, &body); err != nil {
		return nil, oops.With("app_id", appID).Wrap(err)
	}

	entry, ok := body[id]
	if !ok || !entry.Success || len(entry.Data) == 0 {
		return nil, oops.With("app_id", appID, "context", "app details unavailable").Wrap(apperrors.ErrNoData)
	}

	var details domain.AppDetails
	if err := json.Unmarshal(entry.Data, &details); err != nil {
		return nil, oops.With("app_id", appID, "cause", err.Error()).Wrap(apperrors.ErrNoData)
	}
	if details.AppID == 0 {
		details.AppID = appID
	}

	return &details, nil
}

// CurrentPlayers returns the live player count of an app
func (c *Client) CurrentPlayers(ctx context.Context, appID int64) (int64, error) {
	if appID <= 0 {
		return 0, oops.With("app_id", appID).Wrap(apperrors.ErrInvalidAppID)
	}

	var body struct {
		Response struct {
			PlayerCount *int64 `json:"player_count"`
			Result      int    `json:"result"`
		} `json:"response"`
	}

	query := c.webQuery(url.Values{"appid": {strconv.FormatInt(appID, 10)}})
	if err := c.getJSON(ctx, c.webURL+"/ISteamUserStats/GetNumberOfCurrentPlayers/v1/", query, &body); err != nil {
		return 0, oops.With("app_id", appID).Wrap(err)
	}
	if body.Response.Result != 1 || body.Response.PlayerCount == nil {
		return 0, oops.With("app_id", appID, "result", body.Response.Result).Wrap(apperrors.ErrNoData)
	}

	return *body.Response.PlayerCount, nil
}

// MostPlayed returns the current most-played chart
func (c *Client) MostPlayed(ctx context.Context) ([]domain.MostPlayedRank, error) {
	var body struct {
		Response struct {
			RollupDate int64                    `json:"rollup_date"`
			Ranks      *[]domain.MostPlayedRank `json:"ranks"`
		} `json:"response"`
	}

	if err := c.getJSON(ctx, c.webURL+"/ISteamChartsService/GetMostPlayedGames/v1/", c.webQuery(url.Values{}), &body); err != nil {
		return nil, err
	}
	if body.Response.Ranks == nil {
		return nil, oops.With("context", "most played response without ranks").Wrap(apperrors.ErrNoData)
	}

	return *body.Response.Ranks, nil
}

// AppList returns the full catalog listing
func (c *Client) AppList(ctx context.Context) ([]domain.AppListEntry, error) {
	var body struct {
		AppList struct {
			Apps *[]domain.AppListEntry `json:"apps"`
		} `json:"applist"`
	}

	if err := c.getJSON(ctx, c.webURL+"/ISteamApps/GetAppList/v2/", c.webQuery(url.Values{}), &body); err != nil {
		return nil, err
	}
	if body.AppList.Apps == nil {
		return nil, oops.With("context", "app list response without apps").Wrap(apperrors.ErrNoData)
	}

	return *body.AppList.Apps, nil
}

func (c *Client) webQuery(query url.Values) url.Values {
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	return query
}

// getJSON decodes a 2xx JSON response into out. The endpoint, never the
// query (it may hold the API key), is attached to errors.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return oops.With("endpoint", endpoint, "context", "rate limiter wait aborted").Wrap(err)
	}

	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return oops.With("endpoint", endpoint, "context", "failed to build request").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = endpoint
		}
		return oops.With("endpoint", endpoint, "context", "request failed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return oops.With("endpoint", endpoint, "status", resp.StatusCode).Wrap(apperrors.ErrNoData)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return oops.With("endpoint", endpoint, "cause", err.Error()).Wrap(apperrors.ErrNoData)
	}

	return nil
}
