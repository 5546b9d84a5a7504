// Package cli is the command line front end: catalog browsing, favorites
// management and the long-running server.
package cli

import (
	"context"
	"io"

	"github.com/reshetovitsme/steam-browser/internal/di"
	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	"github.com/reshetovitsme/steam-browser/internal/shared/logging"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string) error

type app struct {
	configFile string
	jsonOutput bool
	injector   do.Injector
	cfg        *config.Config
}

// NewRootCommand builds the steambrowser command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "steambrowser",
		Short:         "Browse the Steam catalog and keep a local favorites list",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a yaml, json or toml config file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		a.newSearchCommand(),
		a.newMostPlayedCommand(),
		a.newTopCommand(),
		a.newGameCommand(),
		a.newFavoritesCommand(),
		a.newServeCommand(),
	)

	return root
}

// Execute runs the command tree with os.Args
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// run wraps fn with container setup and teardown. CLI logs go to stderr so
// they never mix with command output.
func (a *app) run(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.setup(); err != nil {
			return err
		}
		logging.Setup(cmd.ErrOrStderr(), io.Discard, a.cfg.SlogLevel())

		defer func() {
			if shutdownErr := di.Shutdown(a.injector); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}()

		return fn(cmd.Context(), cmd, args)
	}
}

func (a *app) setup() error {
	injector, err := di.Setup(a.configFile)
	if err != nil {
		return oops.With("context", "failed to setup dependency injection").Wrap(err)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}

	a.injector = injector
	a.cfg = cfg
	return nil
}
