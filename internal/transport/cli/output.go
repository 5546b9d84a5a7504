package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	catalogDomain "github.com/reshetovitsme/steam-browser/internal/modules/catalog/domain"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
)

func (a *app) printGames(out io.Writer, games []catalogDomain.Game, favorites favoriteDomain.Collection) error {
	if a.jsonOutput {
		return writeJSON(out, games)
	}

	if len(games) == 0 {
		_, err := fmt.Fprintln(out, "no games found")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tAPPID\tNAME\tPRICE\tPLAYERS\tFAV")
	for i, game := range games {
		rank := game.Rank
		if rank == 0 {
			rank = i + 1
		}

		players := ""
		if game.PlayerCount > 0 {
			players = fmt.Sprintf("%d", game.PlayerCount)
		}

		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			rank, game.AppID, game.Name, formatPrice(game), players, favoriteMarker(favorites.Contains(game.AppID)))
	}

	return tw.Flush()
}

func (a *app) printDetails(out io.Writer, page *catalogDomain.GameDetails, favorite bool) error {
	if a.jsonOutput {
		return writeJSON(out, struct {
			*catalogDomain.GameDetails
			Favorite bool `json:"favorite"`
		}{page, favorite})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d) %s\n", page.Name, page.AppID, favoriteMarker(favorite))
	if price := formatPrice(page.Game); price != "" {
		fmt.Fprintf(&b, "Price:       %s\n", price)
	}
	if len(page.Genres) > 0 {
		fmt.Fprintf(&b, "Genres:      %s\n", strings.Join(page.Genres, ", "))
	}
	if len(page.Developers) > 0 {
		fmt.Fprintf(&b, "Developers:  %s\n", strings.Join(page.Developers, ", "))
	}
	if len(page.Publishers) > 0 {
		fmt.Fprintf(&b, "Publishers:  %s\n", strings.Join(page.Publishers, ", "))
	}
	if page.ReleaseDate != "" {
		fmt.Fprintf(&b, "Released:    %s\n", page.ReleaseDate)
	}
	if page.ConcurrentPlayers != nil {
		fmt.Fprintf(&b, "Playing now: %d\n", *page.ConcurrentPlayers)
	}
	fmt.Fprintf(&b, "Store:       %s\n", catalogDomain.StoreURL(page.AppID))
	if page.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", page.Description)
	}

	_, err := io.WriteString(out, b.String())
	return err
}

func (a *app) printFavorites(out io.Writer, favorites favoriteDomain.Collection) error {
	if a.jsonOutput {
		return writeJSON(out, favorites)
	}

	if len(favorites) == 0 {
		_, err := fmt.Fprintln(out, "no favorites yet")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "APPID\tNAME\tIMAGE")
	for _, entry := range favorites {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", entry.ID, entry.Name, entry.ImageURL)
	}
	return tw.Flush()
}

func (a *app) printMembership(out io.Writer, appID int64, favorite bool) error {
	if a.jsonOutput {
		return writeJSON(out, map[string]any{"appid": appID, "favorite": favorite})
	}

	state := "not a favorite"
	if favorite {
		state = "favorite"
	}
	_, err := fmt.Fprintf(out, "%d: %s\n", appID, state)
	return err
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

func favoriteMarker(favorite bool) string {
	if favorite {
		return "*"
	}
	return ""
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
