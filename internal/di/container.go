package di

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/steam-browser/internal/modules/catalog/client"
	catalogService "github.com/reshetovitsme/steam-browser/internal/modules/catalog/service"
	favoriteRepo "github.com/reshetovitsme/steam-browser/internal/modules/favorite/repository"
	favoriteService "github.com/reshetovitsme/steam-browser/internal/modules/favorite/service"
	feedService "github.com/reshetovitsme/steam-browser/internal/modules/feed/service"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/reshetovitsme/steam-browser/internal/shared/kv"
	httpServer "github.com/reshetovitsme/steam-browser/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/steam-browser/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Setup initializes the dependency injection container. configFile may be
// empty to use the default lookup.
func Setup(configFile string) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register KV Store
	do.Provide(injector, func(i do.Injector) (kv.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := kv.Open(cfg.StorageDriver, cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "driver", cfg.StorageDriver, "context", "failed to open storage").Wrap(err)
		}
		return store, nil
	})

	// Register Favorite Repository
	do.Provide(injector, func(i do.Injector) (favoriteRepo.Repository, error) {
		store := do.MustInvoke[kv.Store](i)
		return favoriteRepo.NewKVStorage(store), nil
	})

	// Register Favorite Service
	do.Provide(injector, func(i do.Injector) (*favoriteService.Service, error) {
		repo := do.MustInvoke[favoriteRepo.Repository](i)
		return favoriteService.New(repo), nil
	})

	// Register Catalog Client
	do.Provide(injector, func(i do.Injector) (*client.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return client.New(cfg, nil), nil
	})

	// Register Catalog Service
	do.Provide(injector, func(i do.Injector) (*catalogService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		catalog := do.MustInvoke[*client.Client](i)
		return catalogService.New(catalog, cfg), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		favorites := do.MustInvoke[*favoriteService.Service](i)
		return feedService.New(favorites), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		catalog := do.MustInvoke[*catalogService.Service](i)
		favorites := do.MustInvoke[*favoriteService.Service](i)
		return telegramHandler.New(cfg, catalog, favorites), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		catalog := do.MustInvoke[*catalogService.Service](i)
		favorites := do.MustInvoke[*favoriteService.Service](i)
		feeds := do.MustInvoke[*feedService.Service](i)
		server := httpServer.New(cfg, catalog, favorites, feeds)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.BotEnabled() {
			return nil, apperrors.ErrMissingBotToken
		}

		telegramHandler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(telegramHandler.HandleUpdate),
			bot.WithServerURL(cfg.TelegramAPIURL),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		telegramHandler.RegisterCommands(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down the services that were built, dependents
// before their dependencies, so storage closes after the HTTP server drains.
// Services never invoked are left alone. The bot stops when the context passed
// to its Start is cancelled, so callers cancel that first.
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	report := injector.ShutdownWithContext(ctx)
	if report.Succeed {
		return nil
	}

	errs := lo.MapToSlice(report.Errors, func(service do.ServiceDescription, err error) error {
		return oops.With("service", service.Service, "context", "service shutdown").Wrap(err)
	})

	return errors.Join(errs...)
}
