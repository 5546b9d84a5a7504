package cli

import (
	"context"
	"strconv"
	"strings"

	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func (a *app) newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			catalog := do.MustInvoke[*catalogService.Service](a.injector)
			favorites := do.MustInvoke[*favoriteService.Service](a.injector)

			games := catalog.Search(ctx, strings.Join(args, " "))
			return a.printGames(cmd.OutOrStdout(), games, favorites.LoadAll(ctx))
		}),
	}
}

func (a *app) newMostPlayedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "most-played",
		Short: "Show the most played chart",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			catalog := do.MustInvoke[*catalogService.Service](a.injector)
			favorites := do.MustInvoke[*favoriteService.Service](a.injector)

			return a.printGames(cmd.OutOrStdout(), catalog.MostPlayed(ctx), favorites.LoadAll(ctx))
		}),
	}
}

func (a *app) newTopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Rank the catalog by current players",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			catalog := do.MustInvoke[*catalogService.Service](a.injector)
			favorites := do.MustInvoke[*favoriteService.Service](a.injector)

			return a.printGames(cmd.OutOrStdout(), catalog.TopByPlayers(ctx), favorites.LoadAll(ctx))
		}),
	}
}

func (a *app) newGameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "game <appID>",
		Short: "Show a game's details",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}

			catalog := do.MustInvoke[*catalogService.Service](a.injector)
			favorites := do.MustInvoke[*favoriteService.Service](a.injector)

			page, ok := catalog.GameDetails(ctx, appID)
			if !ok {
				return oops.With("app_id", appID).Errorf("game %d not found", appID)
			}

			return a.printDetails(cmd.OutOrStdout(), page, favorites.IsFavorite(ctx, appID))
		}),
	}
}

func parseAppID(arg string) (int64, error) {
	appID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || appID <= 0 {
		return 0, oops.With("app_id", arg).Wrap(apperrors.ErrInvalidAppID)
	}
	return appID, nil
}
