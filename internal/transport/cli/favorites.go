package cli

import (
	"context"
	"fmt"

	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteDomain "github.com/reshetovitsme/steam-browser/internal/modules/favorite/domain"
	favoriteRepo "github.com/reshetovitsme/steam-browser/internal/modules/favorite/repository"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func (a *app) newFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage the local favorites list",
	}

	cmd.AddCommand(
		a.newFavoritesListCommand(),
		a.newFavoritesCheckCommand(),
		a.newFavoritesToggleCommand(),
		a.newFavoritesDoctorCommand(),
	)

	return cmd
}

func (a *app) newFavoritesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites in the order they were added",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			favorites := do.MustInvoke[*favoriteService.Service](a.injector)
			return a.printFavorites(cmd.OutOrStdout(), favorites.LoadAll(ctx))
		}),
	}
}

func (a *app) newFavoritesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <appID>",
		Short: "Report whether a game is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}

			favorites := do.MustInvoke[*favoriteService.Service](a.injector)
			return a.printMembership(cmd.OutOrStdout(), appID, favorites.IsFavorite(ctx, appID))
		}),
	}
}

func (a *app) newFavoritesToggleCommand() *cobra.Command {
	var (
		name     string
		imageURL string
	)

	cmd := &cobra.Command{
		Use:   "toggle <appID>",
		Short: "Add a game to favorites, or remove it when already present",
		Long: "Add a game to favorites, or remove it when already present. Adding without --name\n" +
			"looks the name and header image up in the store.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}

			favorites := do.MustInvoke[*favoriteService.Service](a.injector)

			entry := favoriteDomain.Entry{ID: appID, Name: name, ImageURL: imageURL}
			if entry.Name == "" && !favorites.IsFavorite(ctx, appID) {
				catalog := do.MustInvoke[*catalogService.Service](a.injector)
				page, ok := catalog.GameDetails(ctx, appID)
				if !ok {
					return oops.With("app_id", appID).Errorf("game %d not found, pass --name to add it anyway", appID)
				}
				entry = catalog.FavoriteEntry(page)
			}

			return a.printMembership(cmd.OutOrStdout(), appID, favorites.ToggleFavorite(ctx, entry))
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "display name to store")
	cmd.Flags().StringVar(&imageURL, "image", "", "image URL to store")

	return cmd
}

func (a *app) newFavoritesDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the persisted favorites for invalid or corrupt data",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			repo := do.MustInvoke[favoriteRepo.Repository](a.injector)
			out := cmd.OutOrStdout()

			result, err := repo.Load()
			if err != nil {
				_, _ = fmt.Fprintf(out, "favorites unreadable: %v\n", err)
				return oops.With("key", favoriteRepo.StorageKey).Wrap(err)
			}

			if a.jsonOutput {
				return writeJSON(out, result)
			}

			_, _ = fmt.Fprintf(out, "valid entries: %d\n", len(result.Entries))
			_, _ = fmt.Fprintf(out, "invalid entries: %d\n", result.Dropped)
			if result.Dropped > 0 {
				_, _ = fmt.Fprintln(out, "invalid entries are removed by the next toggle")
			}
			return nil
		}),
	}
}
